package dto

type MergeTagsRequest struct {
	Lists     [][]string `json:"lists" binding:"required,max=20,dive,max=100,dive,max=50"`
	Threshold *int       `json:"threshold,omitempty" binding:"omitempty,min=1,max=100"`
}

type ExtractTagsRequest struct {
	Text string `json:"text" binding:"required"`
}

type TagsResponse struct {
	Tags []string `json:"tags"`
}
