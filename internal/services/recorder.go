package services

// Recorder receives domain counters. The metrics package implements it;
// services default to a no-op.
type Recorder interface {
	ListingCreated()
	ListingDeleted()
	FilesUploaded(n int)
	UploadRejected(reason string)
	NotificationCreated()
}

type nopRecorder struct{}

func (nopRecorder) ListingCreated()       {}
func (nopRecorder) ListingDeleted()       {}
func (nopRecorder) FilesUploaded(int)     {}
func (nopRecorder) UploadRejected(string) {}
func (nopRecorder) NotificationCreated()  {}
