package vk

import "fmt"

// Envelope is the top-level API reply: either a response or an error
type Envelope struct {
	Response *SearchResponse `json:"response,omitempty"`
	Error    *APIError       `json:"error,omitempty"`
}

// SearchResponse is the payload of video.search
type SearchResponse struct {
	Count int     `json:"count"`
	Items []Video `json:"items"`
}

// Video is one search result
type Video struct {
	ID       int64  `json:"id"`
	OwnerID  int64  `json:"owner_id"`
	Title    string `json:"title"`
	Duration int    `json:"duration"` // Seconds
	Photo320 string `json:"photo_320,omitempty"`
	Files    Files  `json:"files"`
}

// Files holds the direct stream URLs per quality. Missing qualities are empty.
type Files struct {
	MP4240  string `json:"mp4_240,omitempty"`
	MP4360  string `json:"mp4_360,omitempty"`
	MP4480  string `json:"mp4_480,omitempty"`
	MP4720  string `json:"mp4_720,omitempty"`
	MP41080 string `json:"mp4_1080,omitempty"`
	HLS     string `json:"hls,omitempty"`
	// External is set for videos hosted elsewhere; it is not playable directly
	External string `json:"external,omitempty"`
}

// APIError is the error object the API returns with HTTP 200
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

// Error codes with a special meaning
const (
	errCodeAuth        = 5
	errCodeTooManyReqs = 6
)

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}
