package fs

// DiskStatus reports free and total space of the filesystem holding Path.
type DiskStatus struct {
	Path           string `json:"path"`
	AvailableBytes uint64 `json:"availableBytes"`
	TotalBytes     uint64 `json:"totalBytes"`
}
