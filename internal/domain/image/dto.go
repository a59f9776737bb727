package image

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ImageResponse represents an image in API responses
type ImageResponse struct {
	Hash         string  `json:"hash"`
	Size         int64   `json:"size"`
	MimeType     string  `json:"mime_type"`
	Extension    string  `json:"extension"`
	URL          string  `json:"url"`
	CreatedAt    string  `json:"created_at"`
	LastAccessed *string `json:"last_accessed,omitempty"`
	AccessCount  int64   `json:"access_count"`
}

// UploadResponse for POST /upload
type UploadResponse struct {
	*ImageResponse
	Existed bool `json:"existed"`
}

// ImageResponseFromEntity converts entity to response DTO
func ImageResponseFromEntity(img *Image) *ImageResponse {
	resp := &ImageResponse{
		Hash:        img.Hash,
		Size:        img.Size,
		MimeType:    img.MimeType,
		Extension:   img.Extension,
		URL:         "/images/" + img.Hash,
		CreatedAt:   img.CreatedAt.UTC().Format(time.RFC3339),
		AccessCount: img.AccessCount,
	}
	if img.LastAccessed != nil {
		s := img.LastAccessed.UTC().Format(time.RFC3339)
		resp.LastAccessed = &s
	}
	return resp
}

// QueryRequest for GET|POST /api/images/query
type QueryRequest struct {
	MimeType  string     `json:"mime_type" validate:"omitempty,max=100"`
	MinSize   *int64     `json:"min_size" validate:"omitempty,gte=0"`
	MaxSize   *int64     `json:"max_size" validate:"omitempty,gte=0"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Search    string     `json:"search" validate:"omitempty,max=64,hexadecimal"`
	OrderBy   string     `json:"order_by" validate:"order_by"`
	OrderDir  string     `json:"order_dir" validate:"order_dir"`
	Limit     int        `json:"limit" validate:"gte=0,lte=100"`
	Offset    int        `json:"offset" validate:"gte=0"`
}

// QueryRequestFromValues reads the query string form of QueryRequest
func QueryRequestFromValues(v url.Values) (*QueryRequest, error) {
	req := &QueryRequest{
		MimeType: v.Get("mime_type"),
		Search:   v.Get("search"),
		OrderBy:  v.Get("order_by"),
		OrderDir: v.Get("order_dir"),
	}

	var err error
	if req.MinSize, err = optionalInt64(v, "min_size"); err != nil {
		return nil, err
	}
	if req.MaxSize, err = optionalInt64(v, "max_size"); err != nil {
		return nil, err
	}
	if req.StartTime, err = optionalTime(v, "start_time"); err != nil {
		return nil, err
	}
	if req.EndTime, err = optionalTime(v, "end_time"); err != nil {
		return nil, err
	}
	if s := v.Get("limit"); s != "" {
		if req.Limit, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("invalid limit: %q", s)
		}
	}
	if s := v.Get("offset"); s != "" {
		if req.Offset, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("invalid offset: %q", s)
		}
	}
	return req, nil
}

// ToQuery converts the request to a repository query
func (r *QueryRequest) ToQuery() Query {
	return Query{
		MimeType:  r.MimeType,
		MinSize:   r.MinSize,
		MaxSize:   r.MaxSize,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Search:    r.Search,
		OrderBy:   r.OrderBy,
		OrderDir:  r.OrderDir,
		Limit:     r.Limit,
		Offset:    r.Offset,
	}
}

func optionalInt64(v url.Values, key string) (*int64, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", key, s)
	}
	return &n, nil
}

func optionalTime(v url.Values, key string) (*time.Time, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: expected RFC3339, got %q", key, s)
	}
	return &t, nil
}
