package wilderblog

import "time"

// Story is a blog post as persisted by the story repository.
type Story struct {
	ID            int64
	UniqueID      string
	Slug          string
	Title         string
	Body          string
	DatePublished time.Time
	Categories    string // comma-joined labels
	IsPublished   bool
}

// Post is the MetaWeblog wire shape of a story.
type Post struct {
	Title       string    `xmlrpc:"title"`
	Description string    `xmlrpc:"description"`
	DateCreated time.Time `xmlrpc:"dateCreated"`
	Categories  []string  `xmlrpc:"categories"`
	PostID      string    `xmlrpc:"postid,omitempty"`
	UserID      string    `xmlrpc:"userid,omitempty"`
	Permalink   string    `xmlrpc:"permalink,omitempty"`
	Slug        string    `xmlrpc:"wp_slug,omitempty"`
}

// MediaObject is an uploaded file as sent by newMediaObject.
type MediaObject struct {
	Name string
	Type string
	Bits []byte
}

// MediaObjectInfo tells the client where an uploaded file can be reached.
type MediaObjectInfo struct {
	URL string `xmlrpc:"url"`
}

// CategoryInfo describes one category label.
type CategoryInfo struct {
	CategoryID  string `xmlrpc:"categoryid"`
	Title       string `xmlrpc:"title"`
	Description string `xmlrpc:"description"`
	HTMLURL     string `xmlrpc:"htmlUrl"`
	RSSURL      string `xmlrpc:"rssUrl"`
}

// BlogInfo describes the hosted blog.
type BlogInfo struct {
	BlogID   string `xmlrpc:"blogid"`
	BlogName string `xmlrpc:"blogName"`
	URL      string `xmlrpc:"url"`
}

// UserInfo describes the blog's author.
type UserInfo struct {
	UserID    string `xmlrpc:"userid"`
	Email     string `xmlrpc:"email"`
	FirstName string `xmlrpc:"firstname"`
	LastName  string `xmlrpc:"lastname"`
	URL       string `xmlrpc:"url"`
}

// User is an account allowed to publish through the endpoint.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}
