package models

import "strings"

// DefaultAuthor is used when a post or form has no author.
const DefaultAuthor = "Anonymous"

// DisplayAuthor returns the author or the placeholder when it is blank.
func (p *Post) DisplayAuthor() string {
	if strings.TrimSpace(p.Author) == "" {
		return DefaultAuthor
	}
	return p.Author
}

// WasUpdated reports whether the post carries an update timestamp.
func (p *Post) WasUpdated() bool {
	return p.UpdatedAt != nil && !p.UpdatedAt.IsZero()
}

// Input returns the form fields for editing the post.
func (p *Post) Input() PostInput {
	return PostInput{
		Title:  p.Title,
		Body:   p.Body,
		Author: p.Author,
	}
}

// Normalize trims every field and fills in the default author.
func (in PostInput) Normalize() PostInput {
	out := PostInput{
		Title:  strings.TrimSpace(in.Title),
		Body:   strings.TrimSpace(in.Body),
		Author: strings.TrimSpace(in.Author),
	}
	if out.Author == "" {
		out.Author = DefaultAuthor
	}
	return out
}

// Validate checks that title and body are present
func (in PostInput) Validate() error {
	return validate.Struct(in)
}
