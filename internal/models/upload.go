package models

// UploadedFile describes one stored media file. It is returned to the caller
// and not persisted; the caller embeds URL into a listing's photos.
type UploadedFile struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	MimeType string `json:"mimetype"`
}
