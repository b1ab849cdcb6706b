package models

// BatchItem is the per-file outcome of a batch request. One item per input
// file, in submission order.
type BatchItem struct {
	OriginalFilename string `json:"original_filename"`
	Status           string `json:"status"`
	OutputFilename   string `json:"output_filename,omitempty"`
	DownloadURL      string `json:"download_url,omitempty"`
	PublicURL        string `json:"public_url,omitempty"`
	Error            string `json:"error,omitempty"`
}

const (
	ItemStatusSuccess = "success"
	ItemStatusError   = "error"
)

type BatchResponse struct {
	Results []BatchItem `json:"results"`
}
