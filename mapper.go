package wilderblog

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// categorySep joins labels in Story.Categories. Labels containing it do not
// survive a round trip.
const categorySep = ","

// NewStoryFromPost builds an unsaved story from a wire post.
func NewStoryFromPost(p Post, publish bool) *Story {
	st := &Story{}
	ApplyPost(st, p, publish)
	st.UniqueID = st.Slug
	return st
}

// ApplyPost overwrites the story's editable fields with the post and
// recomputes the slug from the new title. A title with nothing to slugify
// keeps the story's current slug, or gets a random one.
func ApplyPost(st *Story, p Post, publish bool) {
	st.Title = p.Title
	st.Body = p.Description
	st.DatePublished = p.DateCreated
	st.Categories = strings.Join(p.Categories, categorySep)
	st.IsPublished = publish
	if slug := Slugify(st.Title); slug != "" {
		st.Slug = slug
	} else if st.Slug == "" {
		st.Slug = uuid.NewString()
	}
}

// PostFromStory maps a story to its wire shape. Empty category segments are
// kept as empty labels.
func PostFromStory(st Story) Post {
	return Post{
		Title:       st.Title,
		Description: st.Body,
		DateCreated: st.DatePublished.UTC(),
		Categories:  strings.Split(st.Categories, categorySep),
		PostID:      strconv.FormatInt(st.ID, 10),
		Slug:        st.Slug,
	}
}

// CategoryInfoFor projects a category label, linking it under tagURLBase.
func CategoryInfoFor(label, tagURLBase string) CategoryInfo {
	return CategoryInfo{
		CategoryID:  label,
		Title:       label,
		Description: label,
		HTMLURL:     tagURLBase + label,
		RSSURL:      "",
	}
}

// BlogInfoFor returns the single hosted blog described by cfg.
func BlogInfoFor(cfg SiteConfig) BlogInfo {
	return BlogInfo{
		BlogID:   cfg.Blog.ID,
		BlogName: cfg.Blog.Name,
		URL:      cfg.Blog.URL,
	}
}

// UserInfoFor returns the blog's author described by cfg.
func UserInfoFor(cfg SiteConfig) UserInfo {
	return UserInfo{
		UserID:    cfg.Author.UserID,
		Email:     cfg.Author.Email,
		FirstName: cfg.Author.FirstName,
		LastName:  cfg.Author.LastName,
		URL:       cfg.Author.URL,
	}
}
