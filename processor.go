package wilderblog

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/donisetti/WilderBlog/xmlrpc"
)

// StoryRepository is one unit of work over the stored stories. Changes made
// through AddStory, DeleteStory, or to stories returned by GetStory are
// persisted only by SaveAll.
type StoryRepository interface {
	AddStory(ctx context.Context, st *Story) error
	// GetStory returns ErrNotFound when no story has that id.
	GetStory(ctx context.Context, id int64) (*Story, error)
	// GetStories returns at most max stories, most recent first.
	GetStories(ctx context.Context, max int) ([]Story, error)
	DeleteStory(ctx context.Context, id int64) (bool, error)
	GetCategories(ctx context.Context) ([]string, error)
	SaveAll(ctx context.Context) error
}

// Sessions opens units of work. Each call gets its own.
type Sessions interface {
	Session() StoryRepository
}

// Fault messages returned to clients. Causes are never exposed.
const (
	msgAuthFailed      = "Authentication failed."
	msgSaveFailed      = "Failed to save the post."
	msgGetFailed       = "Failed to get the post."
	msgCategoriesError = "Failed to get the categories."
	msgRecentError     = "Failed to get the posts."
)

func authFault() *xmlrpc.Fault {
	return &xmlrpc.Fault{Code: 0, Message: msgAuthFailed, Err: ErrAuthenticationFailed}
}

func operationFault(msg string, cause error) *xmlrpc.Fault {
	return &xmlrpc.Fault{Code: 0, Message: msg, Err: cause}
}

// Processor implements the MetaWeblog and Blogger operations. Every method
// authenticates its own credentials before touching storage.
type Processor struct {
	cfg        SiteConfig
	gate       *Gate
	sessions   Sessions
	media      *MediaStore
	categories *CategoryCache
	now        func() time.Time
}

// NewProcessor wires a Processor. cfg must already carry its defaults.
func NewProcessor(cfg SiteConfig, gate *Gate, sessions Sessions, media *MediaStore, categories *CategoryCache) *Processor {
	return &Processor{
		cfg:        cfg,
		gate:       gate,
		sessions:   sessions,
		media:      media,
		categories: categories,
		now:        time.Now,
	}
}

func (p *Processor) authenticate(ctx context.Context, username, password string) error {
	if err := p.gate.Authenticate(ctx, username, password); err != nil {
		return authFault()
	}
	return nil
}

func (p *Processor) invalidate() {
	if p.categories != nil {
		p.categories.Invalidate()
	}
}

func (p *Processor) withDate(post Post) Post {
	if post.DateCreated.IsZero() {
		post.DateCreated = p.now().UTC()
	}
	return post
}

// NewPost implements metaWeblog.newPost and returns the new story's id.
func (p *Processor) NewPost(ctx context.Context, blogID, username, password string, post Post, publish bool) (string, error) {
	if err := p.authenticate(ctx, username, password); err != nil {
		return "", err
	}

	st := NewStoryFromPost(p.withDate(post), publish)
	repo := p.sessions.Session()
	if err := repo.AddStory(ctx, st); err != nil {
		return "", operationFault(msgSaveFailed, err)
	}
	if err := repo.SaveAll(ctx); err != nil {
		return "", operationFault(msgSaveFailed, err)
	}
	p.invalidate()
	return strconv.FormatInt(st.ID, 10), nil
}

// EditPost implements metaWeblog.editPost.
func (p *Processor) EditPost(ctx context.Context, postID, username, password string, post Post, publish bool) (bool, error) {
	if err := p.authenticate(ctx, username, password); err != nil {
		return false, err
	}

	id, err := parseID(postID)
	if err != nil {
		return false, operationFault(msgSaveFailed, err)
	}
	repo := p.sessions.Session()
	st, err := repo.GetStory(ctx, id)
	if err != nil {
		return false, operationFault(msgSaveFailed, err)
	}
	ApplyPost(st, p.withDate(post), publish)
	if err := repo.SaveAll(ctx); err != nil {
		return false, operationFault(msgSaveFailed, err)
	}
	p.invalidate()
	return true, nil
}

// GetPost implements metaWeblog.getPost.
func (p *Processor) GetPost(ctx context.Context, postID, username, password string) (Post, error) {
	if err := p.authenticate(ctx, username, password); err != nil {
		return Post{}, err
	}

	id, err := parseID(postID)
	if err != nil {
		return Post{}, operationFault(msgGetFailed, err)
	}
	st, err := p.sessions.Session().GetStory(ctx, id)
	if err != nil {
		return Post{}, operationFault(msgGetFailed, err)
	}
	post := PostFromStory(*st)
	post.UserID = p.cfg.Author.UserID
	post.Permalink = p.permalink(*st)
	return post, nil
}

// NewMediaObject implements metaWeblog.newMediaObject. Filesystem errors are
// returned as-is rather than as faults.
func (p *Processor) NewMediaObject(ctx context.Context, blogID, username, password string, obj MediaObject) (MediaObjectInfo, error) {
	if err := p.authenticate(ctx, username, password); err != nil {
		return MediaObjectInfo{}, err
	}

	url, err := p.media.Store(ctx, obj.Name, obj.Bits)
	if err != nil {
		return MediaObjectInfo{}, err
	}
	return MediaObjectInfo{URL: url}, nil
}

// GetCategories implements metaWeblog.getCategories.
func (p *Processor) GetCategories(ctx context.Context, blogID, username, password string) ([]CategoryInfo, error) {
	if err := p.authenticate(ctx, username, password); err != nil {
		return nil, err
	}

	var labels []string
	var err error
	if p.categories != nil {
		labels, err = p.categories.Categories(ctx)
	} else {
		labels, err = p.sessions.Session().GetCategories(ctx)
	}
	if err != nil {
		return nil, operationFault(msgCategoriesError, err)
	}
	infos := make([]CategoryInfo, 0, len(labels))
	for _, label := range labels {
		infos = append(infos, CategoryInfoFor(label, p.cfg.TagURLBase))
	}
	return infos, nil
}

// GetRecentPosts implements metaWeblog.getRecentPosts.
func (p *Processor) GetRecentPosts(ctx context.Context, blogID, username, password string, count int) ([]Post, error) {
	if err := p.authenticate(ctx, username, password); err != nil {
		return nil, err
	}

	stories, err := p.sessions.Session().GetStories(ctx, count)
	if err != nil {
		return nil, operationFault(msgRecentError, err)
	}
	posts := make([]Post, 0, len(stories))
	for _, st := range stories {
		post := PostFromStory(st)
		post.Permalink = p.permalink(st)
		posts = append(posts, post)
	}
	return posts, nil
}

// DeletePost implements blogger.deletePost. Failures are reported as false,
// never as a fault.
func (p *Processor) DeletePost(ctx context.Context, appKey, postID, username, password string, publish bool) (bool, error) {
	if err := p.authenticate(ctx, username, password); err != nil {
		return false, err
	}

	id, err := parseID(postID)
	if err != nil {
		return false, nil
	}
	repo := p.sessions.Session()
	ok, err := repo.DeleteStory(ctx, id)
	if err != nil || !ok {
		return false, nil
	}
	if err := repo.SaveAll(ctx); err != nil {
		return false, nil
	}
	p.invalidate()
	return true, nil
}

// GetUsersBlogs implements blogger.getUsersBlogs.
func (p *Processor) GetUsersBlogs(ctx context.Context, appKey, username, password string) ([]BlogInfo, error) {
	if err := p.authenticate(ctx, username, password); err != nil {
		return nil, err
	}
	return []BlogInfo{BlogInfoFor(p.cfg)}, nil
}

// GetUserInfo implements blogger.getUserInfo.
func (p *Processor) GetUserInfo(ctx context.Context, appKey, username, password string) (UserInfo, error) {
	if err := p.authenticate(ctx, username, password); err != nil {
		return UserInfo{}, err
	}
	return UserInfoFor(p.cfg), nil
}

func (p *Processor) permalink(st Story) string {
	return BuildURL(p.cfg.URL, "blog", st.Slug)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.New("wilderblog: invalid post id " + strconv.Quote(s))
	}
	return id, nil
}
