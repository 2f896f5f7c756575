package portabase

import (
	"mime"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// QualificationType is the wire code of a qualification kind.
type QualificationType string

const (
	QualificationFirstAid       QualificationType = "ehbo"
	QualificationPassport       QualificationType = "psp"
	QualificationIDCard         QualificationType = "idk"
	QualificationDriversLicense QualificationType = "rbw"
	QualificationVOG            QualificationType = "vog"
	// QualificationRIE requires an LRKP number.
	QualificationRIE QualificationType = "rie"
)

var qualificationNames = map[QualificationType]string{
	QualificationFirstAid:       "firstaid",
	QualificationPassport:       "passport",
	QualificationIDCard:         "idcard",
	QualificationDriversLicense: "driverslicense",
	QualificationVOG:            "vog",
	QualificationRIE:            "rie",
}

// Valid reports whether t is one of the recognised wire codes.
func (t QualificationType) Valid() bool {
	_, ok := qualificationNames[t]
	return ok
}

// Name returns the descriptive name of the type, or "" when unknown.
func (t QualificationType) Name() string { return qualificationNames[t] }

// QualificationTypes lists the recognised types ordered by wire code.
func QualificationTypes() []QualificationType {
	out := make([]QualificationType, 0, len(qualificationNames))
	for t := range qualificationNames {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseQualificationType accepts a wire code or a descriptive name, case-insensitively.
func ParseQualificationType(s string) (QualificationType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for t, name := range qualificationNames {
		if key == string(t) || key == name {
			return t, nil
		}
	}
	return "", invalidParameter("Invalid type")
}

// Attachment points at a local file that is uploaded as a file part.
type Attachment struct {
	Path        string
	FileName    string
	ContentType string
}

// NewAttachment derives the upload filename and MIME type from path.
func NewAttachment(path string) Attachment {
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return Attachment{
		Path:        path,
		FileName:    filepath.Base(path),
		ContentType: ct,
	}
}

// QualificationSubmission is the input of SubmitQualification. Optional fields
// are pointers so that an absent value is distinct from an empty one.
type QualificationSubmission struct {
	HostID                 int
	Date                   string
	ExpireDate             string
	Type                   QualificationType
	Attachment             Attachment
	Comments               *string
	LRKPNumber             *string
	ActionPlanApprovalDate *string
	ActionPlan             *Attachment
	ActionPlanExecuted     bool
}

// Part is one named field of the qualification form. File is set for uploads.
type Part struct {
	Name  string
	Value string
	File  *Attachment
}

// Multipart field names used by the kwalificatie endpoint.
const (
	fieldHostID             = "gastouderId"
	fieldType               = "kwalificatieType"
	fieldDate               = "datumAfgifte"
	fieldExpireDate         = "verloopDatum"
	fieldAttachment         = "bijlage1"
	fieldLRKP               = "lrkpNummer"
	fieldActionPlanApproval = "datumAkkoordActieplan"
	fieldActionPlan         = "actieplan"
	fieldActionPlanFile     = "bijlage2"
	fieldActionPlanExecuted = "actieplanUitgevoerd"
	fieldComments           = "opmerkingen"
)

// Validate runs the checks SubmitQualification performs before any I/O.
func (s QualificationSubmission) Validate() error {
	if !s.Type.Valid() {
		return invalidParameter("Invalid type")
	}
	if s.Type == QualificationRIE && s.LRKPNumber == nil {
		return invalidParameter("Missing parameter lrkp")
	}
	if s.HostID <= 0 {
		return invalidParameter("host id must be a positive integer")
	}
	if strings.TrimSpace(s.Attachment.Path) == "" {
		return invalidParameter("Missing attachment")
	}
	if s.ActionPlan != nil && strings.TrimSpace(s.ActionPlan.Path) == "" {
		return invalidParameter("Missing action plan file")
	}
	return nil
}

// BuildParts returns the ordered form layout for s. It performs no I/O.
func BuildParts(s QualificationSubmission) ([]Part, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	attachment := s.Attachment
	parts := []Part{
		{Name: fieldHostID, Value: strconv.Itoa(s.HostID)},
		{Name: fieldType, Value: string(s.Type)},
		{Name: fieldDate, Value: s.Date},
		{Name: fieldExpireDate, Value: s.ExpireDate},
		{Name: fieldAttachment, File: &attachment},
	}

	if s.Type == QualificationRIE {
		parts = append(parts, Part{Name: fieldLRKP, Value: *s.LRKPNumber})
	}
	if s.ActionPlanApprovalDate != nil {
		parts = append(parts, Part{Name: fieldActionPlanApproval, Value: *s.ActionPlanApprovalDate})
	}
	if s.ActionPlan != nil {
		plan := *s.ActionPlan
		parts = append(parts,
			Part{Name: fieldActionPlan, Value: "1"},
			Part{Name: fieldActionPlanFile, File: &plan},
		)
		if s.ActionPlanExecuted {
			parts = append(parts, Part{Name: fieldActionPlanExecuted, Value: "1"})
		}
	}
	if s.Comments != nil {
		parts = append(parts, Part{Name: fieldComments, Value: *s.Comments})
	}
	return parts, nil
}
