package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/mackey55555/ceo-club-app-sub000/internal/models"
)

const (
	ContentType = "text/csv; charset=utf-8"
	TimeLayout  = "2006/01/02 15:04"

	// none fills columns that have no value for a row.
	none = "-"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

var header = []string{"種別", "氏名", "メールアドレス", "会社名", "役職", "ステータス", "申込日時", "キャンセル日時"}

var typeLabels = map[models.ApplicationType]string{
	models.TypeMember: "会員",
	models.TypeGuest:  "ゲスト",
}

var statusLabels = map[models.ApplicationStatus]string{
	models.StatusApplied:   "申込済",
	models.StatusCancelled: "キャンセル",
}

// Filename is the download name for an event's export taken at t.
func Filename(eventID string, t time.Time) string {
	return fmt.Sprintf("event_applications_%s_%d.csv", eventID, t.Unix())
}

// Encoder writes applications as CSV with timestamps in a fixed location.
type Encoder struct {
	loc *time.Location
}

func NewEncoder(loc *time.Location) *Encoder {
	if loc == nil {
		loc = time.UTC
	}
	return &Encoder{loc: loc}
}

// Encode returns the whole file: BOM, header, member rows, then guest rows.
func (e *Encoder) Encode(members []models.MemberApplication, guests []models.GuestApplication) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, members, guests); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) Write(w io.Writer, members []models.MemberApplication, guests []models.GuestApplication) error {
	if _, err := w.Write(bom); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range members {
		if err := cw.Write(e.memberRow(&members[i])); err != nil {
			return err
		}
	}
	for i := range guests {
		if err := cw.Write(e.guestRow(&guests[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (e *Encoder) memberRow(a *models.MemberApplication) []string {
	var name, email, company string
	if a.Member != nil {
		name, email, company = a.Member.FullName, a.Member.Email, a.Member.CompanyName
	}
	return []string{
		typeLabels[models.TypeMember],
		name,
		email,
		company,
		none,
		statusLabels[a.Status],
		e.format(a.AppliedAt),
		e.formatOptional(a.CancelledAt),
	}
}

func (e *Encoder) guestRow(a *models.GuestApplication) []string {
	return []string{
		typeLabels[models.TypeGuest],
		a.FullName,
		a.Email,
		orEmpty(a.CompanyName),
		orDash(a.JobTitle),
		statusLabels[a.Status],
		e.format(a.AppliedAt),
		e.formatOptional(a.CancelledAt),
	}
}

func (e *Encoder) format(t time.Time) string {
	return t.In(e.loc).Format(TimeLayout)
}

func (e *Encoder) formatOptional(t *time.Time) string {
	if t == nil {
		return none
	}
	return e.format(*t)
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return none
	}
	return *s
}
