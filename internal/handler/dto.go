package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/msomdec/quill/internal/domain"
	"github.com/msomdec/quill/internal/service"
)

// UserDTO is the JSON representation of a user. The password hash is
// never included.
type UserDTO struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Username   string   `json:"username"`
	Role       string   `json:"role"`
	Favourites []string `json:"favourites"`
	Articles   []string `json:"articles"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Username:   u.Username,
		Role:       string(u.Role),
		Favourites: nonNil(u.Favourites),
		Articles:   nonNil(u.Articles),
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  u.UpdatedAt.Format(time.RFC3339),
	}
}

// AuthorDTO is the public card of an article's author.
type AuthorDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toAuthorDTO(a *domain.Author) *AuthorDTO {
	if a == nil {
		return nil
	}
	return &AuthorDTO{ID: a.ID, Name: a.Name, Username: a.Username, Email: a.Email}
}

// CommentDTO is the JSON representation of a comment.
type CommentDTO struct {
	ID           string `json:"id"`
	ArticleID    string `json:"blogId"`
	UserID       string `json:"user"`
	Username     string `json:"username,omitempty"`
	Content      string `json:"content"`
	ArticleTitle string `json:"blogTitle,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

func toCommentDTO(c domain.Comment) CommentDTO {
	return CommentDTO{
		ID:        c.ID,
		ArticleID: c.ArticleID,
		UserID:    c.UserID,
		Username:  c.Username,
		Content:   c.Content,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func toAuthorCommentDTOs(comments []domain.AuthorComment) []CommentDTO {
	dtos := make([]CommentDTO, len(comments))
	for i, c := range comments {
		dtos[i] = toCommentDTO(c.Comment)
		dtos[i].ArticleTitle = c.ArticleTitle
	}
	return dtos
}

// ReadEntryDTO is one entry of an article's read history.
type ReadEntryDTO struct {
	UserID string `json:"user"`
	ReadAt string `json:"readAt"`
}

// ArticleDTO is the JSON representation of an article in listings.
type ArticleDTO struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Category     string     `json:"category"`
	Tags         []string   `json:"tags"`
	Image        string     `json:"image,omitempty"`
	Status       string     `json:"status"`
	AuthorID     string     `json:"authorId"`
	Author       *AuthorDTO `json:"author,omitempty"`
	CommentCount int        `json:"commentCount"`
	CreatedAt    string     `json:"createdAt"`
	UpdatedAt    string     `json:"updatedAt"`
}

// ArticleDetailDTO is a single article with its embedded collections.
// The collections are always present, empty or not.
type ArticleDetailDTO struct {
	ArticleDTO
	Comments    []CommentDTO   `json:"comments"`
	Bookmarks   []string       `json:"bookmarks"`
	ReadHistory []ReadEntryDTO `json:"readHistory"`
}

func toArticleDTO(a *domain.Article) ArticleDTO {
	return ArticleDTO{
		ID:           a.ID,
		Title:        a.Title,
		Content:      a.Content,
		Category:     a.Category,
		Tags:         nonNil(a.Tags),
		Image:        a.Image,
		Status:       string(a.Status),
		AuthorID:     a.AuthorID,
		Author:       toAuthorDTO(a.Author),
		CommentCount: a.CommentCount,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    a.UpdatedAt.Format(time.RFC3339),
	}
}

func toArticleDetailDTO(a *domain.Article) ArticleDetailDTO {
	dto := ArticleDetailDTO{
		ArticleDTO:  toArticleDTO(a),
		Comments:    make([]CommentDTO, len(a.Comments)),
		Bookmarks:   nonNil(a.Bookmarks),
		ReadHistory: make([]ReadEntryDTO, len(a.ReadHistory)),
	}
	for i, c := range a.Comments {
		dto.Comments[i] = toCommentDTO(c)
	}
	for i, e := range a.ReadHistory {
		dto.ReadHistory[i] = ReadEntryDTO{UserID: e.UserID, ReadAt: e.ReadAt.Format(time.RFC3339)}
	}
	return dto
}

func toArticleDTOs(articles []domain.Article) []ArticleDTO {
	dtos := make([]ArticleDTO, len(articles))
	for i := range articles {
		dtos[i] = toArticleDTO(&articles[i])
	}
	return dtos
}

// ArticlePageDTO is one page of an admin's articles.
type ArticlePageDTO struct {
	Articles []ArticleDTO `json:"articles"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	Pages    int          `json:"pages"`
}

func toArticlePageDTO(p *service.ArticlePage) ArticlePageDTO {
	return ArticlePageDTO{
		Articles: toArticleDTOs(p.Articles),
		Total:    p.Total,
		Page:     p.Page,
		Pages:    p.Pages,
	}
}

// ImageDTO is the JSON representation of an uploaded image.
type ImageDTO struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

func toImageDTO(img *domain.ArticleImage) ImageDTO {
	return ImageDTO{
		ID:          img.ID,
		URL:         service.ImageURL(img.ID),
		ContentType: img.ContentType,
		Size:        img.Size,
	}
}

// Tags accepts either a JSON array of strings or a single comma-separated
// string.
type Tags []string

func (t *Tags) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Tags(strings.Split(s, ","))
		if strings.TrimSpace(s) == "" {
			*t = Tags{}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return errors.New("tags must be an array of strings or a comma-separated string")
	}
	*t = Tags(list)
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
