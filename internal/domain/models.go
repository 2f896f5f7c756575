package domain

import "time"

// Receipt records a qualification the remote service accepted.
type Receipt struct {
	Fingerprint       string         `json:"fingerprint"`
	HostID            int            `json:"host_id"`
	QualificationType string         `json:"qualification_type"`
	Date              string         `json:"date"`
	ExpireDate        string         `json:"expire_date"`
	AttachmentName    string         `json:"attachment_name"`
	SubmittedAt       time.Time      `json:"submitted_at"`
	Confirmation      map[string]any `json:"confirmation,omitempty"`
}
