package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chirpnest/backend/internal/models"
	"github.com/chirpnest/backend/internal/repositories"
	"github.com/chirpnest/backend/validators"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// clock hands out strictly increasing timestamps so newest-first
// ordering is deterministic in tests
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *clock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// fakeUserRepo is an in-memory UserRepository
type fakeUserRepo struct {
	users map[primitive.ObjectID]*models.User
	order []primitive.ObjectID
	clk   *clock
}

func newFakeUserRepo(clk *clock) *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User), clk: clk}
}

var _ repositories.UserRepository = (*fakeUserRepo)(nil)

func (r *fakeUserRepo) CreateUser(_ context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = r.clk.next()
	user.UpdatedAt = user.CreatedAt
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	if user.LikedPosts == nil {
		user.LikedPosts = []primitive.ObjectID{}
	}
	stored := *user
	r.users[user.ID] = &stored
	r.order = append(r.order, user.ID)
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) UpdateUser(_ context.Context, user *models.User) error {
	stored, ok := r.users[user.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Username = user.Username
	stored.FullName = user.FullName
	stored.Email = user.Email
	stored.Password = user.Password
	stored.Bio = user.Bio
	stored.Link = user.Link
	stored.ProfileImg = user.ProfileImg
	stored.CoverImg = user.CoverImg
	stored.UpdatedAt = r.clk.next()
	return nil
}

func addToSet(set []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, existing := range set {
		if existing == id {
			return set
		}
	}
	return append(set, id)
}

func pull(set []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := set[:0]
	for _, existing := range set {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func (r *fakeUserRepo) AddFollow(_ context.Context, followerID, targetID primitive.ObjectID) error {
	if follower, ok := r.users[followerID]; ok {
		follower.Following = addToSet(follower.Following, targetID)
	}
	if target, ok := r.users[targetID]; ok {
		target.Followers = addToSet(target.Followers, followerID)
	}
	return nil
}

func (r *fakeUserRepo) RemoveFollow(_ context.Context, followerID, targetID primitive.ObjectID) error {
	if follower, ok := r.users[followerID]; ok {
		follower.Following = pull(follower.Following, targetID)
	}
	if target, ok := r.users[targetID]; ok {
		target.Followers = pull(target.Followers, followerID)
	}
	return nil
}

func (r *fakeUserRepo) AddLikedPost(_ context.Context, userID, postID primitive.ObjectID) error {
	if user, ok := r.users[userID]; ok {
		user.LikedPosts = addToSet(user.LikedPosts, postID)
	}
	return nil
}

func (r *fakeUserRepo) RemoveLikedPost(_ context.Context, userID, postID primitive.ObjectID) error {
	if user, ok := r.users[userID]; ok {
		user.LikedPosts = pull(user.LikedPosts, postID)
	}
	return nil
}

func (r *fakeUserRepo) SampleUsers(_ context.Context, excludeID primitive.ObjectID, size int) ([]models.User, error) {
	var sampled []models.User
	for _, id := range r.order {
		if id == excludeID {
			continue
		}
		sampled = append(sampled, *r.users[id])
		if len(sampled) == size {
			break
		}
	}
	return sampled, nil
}

// fakePostRepo is an in-memory PostRepository
type fakePostRepo struct {
	posts map[primitive.ObjectID]*models.Post
	clk   *clock
}

func newFakePostRepo(clk *clock) *fakePostRepo {
	return &fakePostRepo{posts: make(map[primitive.ObjectID]*models.Post), clk: clk}
}

var _ repositories.PostRepository = (*fakePostRepo)(nil)

func (r *fakePostRepo) CreatePost(_ context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = r.clk.next()
	post.UpdatedAt = post.CreatedAt
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	stored := *post
	r.posts[post.ID] = &stored
	return nil
}

func (r *fakePostRepo) GetPostByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *post
	return &cp, nil
}

func (r *fakePostRepo) DeletePost(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) AddLike(_ context.Context, postID, userID primitive.ObjectID) error {
	if post, ok := r.posts[postID]; ok {
		post.Likes = addToSet(post.Likes, userID)
	}
	return nil
}

func (r *fakePostRepo) RemoveLike(_ context.Context, postID, userID primitive.ObjectID) error {
	if post, ok := r.posts[postID]; ok {
		post.Likes = pull(post.Likes, userID)
	}
	return nil
}

func (r *fakePostRepo) AddComment(_ context.Context, postID primitive.ObjectID, comment models.Comment) error {
	post, ok := r.posts[postID]
	if !ok {
		return repositories.ErrNotFound
	}
	post.Comments = append(post.Comments, comment)
	post.UpdatedAt = r.clk.next()
	return nil
}

func (r *fakePostRepo) collect(match func(*models.Post) bool) []models.Post {
	posts := []models.Post{}
	for _, post := range r.posts {
		if match(post) {
			posts = append(posts, *post)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (r *fakePostRepo) GetAllPosts(_ context.Context) ([]models.Post, error) {
	return r.collect(func(*models.Post) bool { return true }), nil
}

func (r *fakePostRepo) GetPostsByUser(_ context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	return r.collect(func(p *models.Post) bool { return p.UserID == userID }), nil
}

func (r *fakePostRepo) GetPostsByUsers(_ context.Context, userIDs []primitive.ObjectID) ([]models.Post, error) {
	if len(userIDs) == 0 {
		return []models.Post{}, nil
	}
	members := make(map[primitive.ObjectID]bool, len(userIDs))
	for _, id := range userIDs {
		members[id] = true
	}
	return r.collect(func(p *models.Post) bool { return members[p.UserID] }), nil
}

func (r *fakePostRepo) GetPostsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	members := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		members[id] = true
	}
	return r.collect(func(p *models.Post) bool { return members[p.ID] }), nil
}

// fakeNotificationRepo is an in-memory NotificationRepository
type fakeNotificationRepo struct {
	notifications []*models.Notification
	clk           *clock
}

func newFakeNotificationRepo(clk *clock) *fakeNotificationRepo {
	return &fakeNotificationRepo{clk: clk}
}

var _ repositories.NotificationRepository = (*fakeNotificationRepo)(nil)

func (r *fakeNotificationRepo) CreateNotification(_ context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = r.clk.next()
	stored := *notification
	r.notifications = append(r.notifications, &stored)
	return nil
}

func (r *fakeNotificationRepo) GetByRecipient(_ context.Context, recipientID primitive.ObjectID) ([]models.Notification, error) {
	out := []models.Notification{}
	for _, n := range r.notifications {
		if n.To == recipientID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Notification, error) {
	for _, n := range r.notifications {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, recipientID primitive.ObjectID) (int64, error) {
	var count int64
	for _, n := range r.notifications {
		if n.To == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, recipientID primitive.ObjectID) error {
	for _, n := range r.notifications {
		if n.To == recipientID {
			n.Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteNotification(_ context.Context, id primitive.ObjectID) error {
	for i, n := range r.notifications {
		if n.ID == id {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeNotificationRepo) DeleteAllForRecipient(_ context.Context, recipientID primitive.ObjectID) error {
	kept := r.notifications[:0]
	for _, n := range r.notifications {
		if n.To != recipientID {
			kept = append(kept, n)
		}
	}
	r.notifications = kept
	return nil
}

// fakeMediaService records uploads and destroys
type fakeMediaService struct {
	uploads   int
	destroyed []string
	uploadErr error
}

func (s *fakeMediaService) Upload(_ context.Context, payload string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploads++
	return fmt.Sprintf("https://media.test/v1/upload%d.png", s.uploads), nil
}

func (s *fakeMediaService) Destroy(_ context.Context, publicID string) error {
	s.destroyed = append(s.destroyed, publicID)
	return nil
}

// testEnv bundles the fakes behind every handler under test
type testEnv struct {
	echo      *echo.Echo
	users     *fakeUserRepo
	posts     *fakePostRepo
	notifs    *fakeNotificationRepo
	media     *fakeMediaService
	userClock *clock
}

func newTestEnv() *testEnv {
	e := echo.New()
	e.Validator = validators.NewValidator()
	clk := newClock()
	return &testEnv{
		echo:      e,
		users:     newFakeUserRepo(clk),
		posts:     newFakePostRepo(clk),
		notifs:    newFakeNotificationRepo(clk),
		media:     &fakeMediaService{},
		userClock: clk,
	}
}

// seedUser creates a user with a bcrypt-free marker password unless a
// hash is supplied by the caller
func (env *testEnv) seedUser(username, email, passwordHash string) *models.User {
	user := &models.User{
		Username: username,
		FullName: username + " test",
		Email:    email,
		Password: passwordHash,
	}
	_ = env.users.CreateUser(context.Background(), user)
	return user
}

// request builds an echo context for a handler invocation. A zero
// userID leaves the request unauthenticated.
func (env *testEnv) request(method, path, body string, userID primitive.ObjectID) (echo.Context, *httptest.ResponseRecorder) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.echo.NewContext(req, rec)
	if !userID.IsZero() {
		c.Set("userID", userID.Hex())
	}
	return c, rec
}

// httpError unwraps the echo.HTTPError returned by a handler
func httpError(err error) (int, string) {
	he, ok := err.(*echo.HTTPError)
	if !ok {
		return http.StatusInternalServerError, err.Error()
	}
	msg, _ := he.Message.(string)
	return he.Code, msg
}
