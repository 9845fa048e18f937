package transport

import "time"

type ImportItem struct {
	Name  string `json:"name" validate:"required,notblank,max=255"`
	Image string `json:"image" validate:"required"`
}

type ImportRequest struct {
	Kind  string       `json:"kind" validate:"required,notblank,max=64"`
	Items []ImportItem `json:"items" validate:"required,min=1,max=1000,dive"`
}

type ImportResponse struct {
	Kind     string `json:"kind"`
	Imported int    `json:"imported"`
}

type ListImagesRequest struct {
	Kind string `form:"kind" validate:"required,notblank,max=64"`
}

type GetImageRequest struct {
	Size string `form:"size" validate:"omitempty,oneof=thumb medium original"`
}

type ExtractRequest struct {
	Kind string `json:"kind" validate:"required,notblank,max=64"`
	Name string `json:"name" validate:"omitempty,max=255"`
}

type ImageResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

type ImageListResponse struct {
	Items []ImageResponse `json:"items"`
	Total int             `json:"total"`
}

type ExtractResponse struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
}
