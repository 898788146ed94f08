package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// fakeStore is an in-memory implementation of every repository interface.
// It is safe for concurrent use because list hydration runs in parallel.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]*model.User
	articles  map[int64]*model.Article
	comments  map[int64]*model.Comment
	favorites map[[2]int64]bool // {userID, articleID}
	follows   map[[2]int64]bool // {followerID, followeeID}

	// failWith, when set, is returned by every read.
	failWith error
}

var (
	_ repository.UserRepository    = (*fakeStore)(nil)
	_ repository.FollowRepository  = (*fakeStore)(nil)
	_ repository.ArticleRepository = (*fakeStore)(nil)
	_ repository.CommentRepository = (*fakeStore)(nil)
	_ repository.TagRepository     = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[int64]*model.User{},
		articles:  map[int64]*model.Article{},
		comments:  map[int64]*model.Comment{},
		favorites: map[[2]int64]bool{},
		follows:   map[[2]int64]bool{},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

// --- users ---

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return apperror.Conflict("user", "email")
		}
		if existing.Username == u.Username {
			return apperror.Conflict("user", "username")
		}
	}
	u.ID = f.id()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", fmt.Sprint(id))
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) findUser(match func(*model.User) bool, key string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", key)
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return f.findUser(func(u *model.User) bool { return u.Email == email }, email)
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return f.findUser(func(u *model.User) bool { return u.Username == username }, username)
}

func (f *fakeStore) UpdateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return apperror.NotFound("user", fmt.Sprint(u.ID))
	}
	for id, existing := range f.users {
		if id == u.ID {
			continue
		}
		if existing.Email == u.Email {
			return apperror.Conflict("user", "email")
		}
		if existing.Username == u.Username {
			return apperror.Conflict("user", "username")
		}
	}
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

// --- follows ---

func (f *fakeStore) Follow(_ context.Context, follower, followee int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.follows[[2]int64{follower, followee}] = true
	return nil
}

func (f *fakeStore) Unfollow(_ context.Context, follower, followee int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.follows, [2]int64{follower, followee})
	return nil
}

func (f *fakeStore) IsFollowing(_ context.Context, follower, followee int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.follows[[2]int64{follower, followee}], nil
}

// --- articles ---

func (f *fakeStore) favoritesCount(articleID int64) int64 {
	var n int64
	for k := range f.favorites {
		if k[1] == articleID {
			n++
		}
	}
	return n
}

func (f *fakeStore) QueryArticles(_ context.Context, q repository.ArticleQuery) ([]model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	q = q.Normalized()

	var out []model.Article
	for _, a := range f.articles {
		author := f.users[a.AuthorID]
		if q.Author != "" && (author == nil || author.Username != q.Author) {
			continue
		}
		if q.Tag != "" && !contains(a.TagList, q.Tag) {
			continue
		}
		if q.FeedOwnerID != 0 && !f.follows[[2]int64{q.FeedOwnerID, a.AuthorID}] {
			continue
		}
		if q.FavoritedBy != "" {
			matched := false
			for k := range f.favorites {
				if u := f.users[k[0]]; u != nil && u.Username == q.FavoritedBy && k[1] == a.ID {
					matched = true
				}
			}
			if !matched {
				continue
			}
		}
		cp := *a
		cp.FavoritesCount = f.favoritesCount(a.ID)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	if q.Offset >= len(out) {
		return []model.Article{}, nil
	}
	out = out[q.Offset:]
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeStore) CreateArticle(_ context.Context, a *model.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.articles {
		if existing.Slug == a.Slug {
			return apperror.Conflict("article", "slug")
		}
	}
	a.ID = f.id()
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	stored := *a
	f.articles[a.ID] = &stored
	return nil
}

func (f *fakeStore) GetArticleBySlug(_ context.Context, slug string) (*model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, a := range f.articles {
		if a.Slug == slug {
			cp := *a
			cp.FavoritesCount = f.favoritesCount(a.ID)
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("article", slug)
}

func (f *fakeStore) UpdateArticle(_ context.Context, a *model.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.articles[a.ID]; !ok {
		return apperror.NotFound("article", a.Slug)
	}
	a.UpdatedAt = time.Now().UTC()
	stored := *a
	f.articles[a.ID] = &stored
	return nil
}

func (f *fakeStore) DeleteArticle(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.articles[id]; !ok {
		return apperror.NotFound("article", fmt.Sprint(id))
	}
	delete(f.articles, id)
	for k := range f.favorites {
		if k[1] == id {
			delete(f.favorites, k)
		}
	}
	for cid, c := range f.comments {
		if c.ArticleID == id {
			delete(f.comments, cid)
		}
	}
	return nil
}

func (f *fakeStore) Favorite(_ context.Context, userID, articleID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favorites[[2]int64{userID, articleID}] = true
	return nil
}

func (f *fakeStore) Unfavorite(_ context.Context, userID, articleID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.favorites, [2]int64{userID, articleID})
	return nil
}

func (f *fakeStore) IsFavorited(_ context.Context, userID, articleID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.favorites[[2]int64{userID, articleID}], nil
}

// --- comments & tags ---

func (f *fakeStore) CreateComment(_ context.Context, c *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.id()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	f.comments[c.ID] = &stored
	return nil
}

func (f *fakeStore) GetComment(_ context.Context, id int64) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return nil, apperror.NotFound("comment", fmt.Sprint(id))
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListComments(_ context.Context, articleID int64) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Comment{}
	for _, c := range f.comments {
		if c.ArticleID == articleID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) DeleteComment(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[id]; !ok {
		return apperror.NotFound("comment", fmt.Sprint(id))
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeStore) ListTags(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	set := map[string]bool{}
	for _, a := range f.articles {
		for _, t := range a.TagList {
			set[t] = true
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var errStorageDown = errors.New("storage down")
