package storypark

import (
	"bytes"
	"encoding/json"
	"fmt"

	errs "storypark/pkg/errors"
)

// ID is an API identifier. The API is not consistent about sending ids as
// numbers or strings, so both are accepted.
type ID string

// UnmarshalJSON accepts a JSON string or number
func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return missingField("id")
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// CurrentUserResponse is the body of GET /users/me
type CurrentUserResponse struct {
	User User `json:"user"`
}

// User is the signed-in account
type User struct {
	Children []ChildProfile `json:"children"`
}

// ChildProfile is a child whose journal is archived
type ChildProfile struct {
	ID ID `json:"id"`
}

// StoryPage is one page of a child's story feed
type StoryPage struct {
	Stories []Story `json:"stories"`
	// NextPageToken is empty on the last page
	NextPageToken string `json:"next_page_token,omitempty"`
}

// Story is a dated journal entry with attached media
type Story struct {
	Date  string  `json:"date"`
	Title string  `json:"title"`
	Media []Media `json:"media"`
}

// Media is one attachment of a story. Position is its zero-based index within
// the story and is not part of the wire format.
type Media struct {
	Type        string `json:"type"`
	ContentType string `json:"content_type"`
	OriginalURL string `json:"original_url"`
	Position    int    `json:"-"`
}

func missingField(name string) error {
	return errs.New(errs.ErrorTypeParsing, 0, "missing required field %q", name)
}

func (r *CurrentUserResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.User == nil {
		return missingField("user")
	}
	r.User = *raw.User
	return nil
}

func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		Children *[]ChildProfile `json:"children"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Children == nil {
		return missingField("user.children")
	}
	u.Children = *raw.Children
	return nil
}

func (c *ChildProfile) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID *ID `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.ID == nil || *raw.ID == "" {
		return missingField("children[].id")
	}
	c.ID = *raw.ID
	return nil
}

func (p *StoryPage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Stories       *[]Story `json:"stories"`
		NextPageToken *string  `json:"next_page_token"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Stories == nil {
		return missingField("stories")
	}
	p.Stories = *raw.Stories
	p.NextPageToken = ""
	if raw.NextPageToken != nil {
		p.NextPageToken = *raw.NextPageToken
	}
	return nil
}

func (s *Story) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date  *string  `json:"date"`
		Title *string  `json:"title"`
		Media *[]Media `json:"media"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Date == nil:
		return missingField("stories[].date")
	case raw.Title == nil:
		return missingField("stories[].title")
	case raw.Media == nil:
		return missingField("stories[].media")
	}
	s.Date = *raw.Date
	s.Title = *raw.Title
	s.Media = *raw.Media
	for i := range s.Media {
		s.Media[i].Position = i
	}
	return nil
}

func (m *Media) UnmarshalJSON(data []byte) error {
	type plain Media
	var raw struct {
		plain
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type == nil {
		return missingField("media[].type")
	}
	*m = Media(raw.plain)
	m.Type = *raw.Type
	return nil
}

// Validate checks the fields needed to download an entry. It is only called
// for entries whose type is archived, so unsupported entries may omit them.
func (m Media) Validate() error {
	if m.ContentType == "" {
		return missingField("media[].content_type")
	}
	if m.OriginalURL == "" {
		return missingField("media[].original_url")
	}
	return nil
}
