package signal

import (
	"hash/fnv"
	"strings"
	"time"
)

// Registration fallback scores. The fallback synthesizes a registration
// date, so it has two possible scores.
const (
	RegistrationFallbackScore    = 70
	RegistrationFallbackNewScore = 30
)

const (
	newDomainDays = 90
	unknownDate   = "Unknown"
	dateLayout    = "2006-01-02"
)

// ageDeductions are applied first-match, youngest bracket first.
var ageDeductions = []struct {
	under  int
	deduct int
}{
	{30, 80},
	{90, 60},
	{180, 40},
	{365, 30},
}

const privacyDeduction = 10

// Registrant is the registrant contact of a domain.
type Registrant struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Country      string `json:"country"`
	Email        string `json:"-"`
}

// RegistrationRecord is what a registration source returns. Zero times mean
// the record did not carry the date.
type RegistrationRecord struct {
	Domain      string
	CreatedDate time.Time
	ExpiresDate time.Time
	Registrar   string
	Registrant  Registrant
}

// DomainAge breaks a domain age down the way it is reported.
type DomainAge struct {
	Days   int `json:"days"`
	Years  int `json:"years"`
	Months int `json:"months"`
}

// RegistrationVerdict is the raw metadata carried in the envelope.
type RegistrationVerdict struct {
	Domain           string     `json:"domain,omitempty"`
	RegistrationDate string     `json:"registration_date"`
	ExpirationDate   string     `json:"expiration_date"`
	Registrar        string     `json:"registrar"`
	Registrant       Registrant `json:"registrant"`
	PrivacyProtected bool       `json:"privacy_protected"`
	Age              *DomainAge `json:"domain_age,omitempty"`
	IsNewDomain      bool       `json:"is_new_domain"`
	Synthetic        bool       `json:"synthetic,omitempty"`
	Error            string     `json:"error,omitempty"`
}

// ScoreRegistration maps a registration record to a signal. A record
// without a creation date gets no age deduction.
func ScoreRegistration(rec RegistrationRecord, now time.Time) Signal[RegistrationVerdict] {
	v := RegistrationVerdict{
		Domain:           rec.Domain,
		RegistrationDate: formatDate(rec.CreatedDate),
		ExpirationDate:   formatDate(rec.ExpiresDate),
		Registrar:        orUnknown(rec.Registrar),
		Registrant: Registrant{
			Name:         orUnknown(rec.Registrant.Name),
			Organization: orUnknown(rec.Registrant.Organization),
			Country:      orUnknown(rec.Registrant.Country),
		},
		PrivacyProtected: isPrivacyProtected(rec.Registrant),
	}

	score := 100
	if !rec.CreatedDate.IsZero() {
		age := ageOf(rec.CreatedDate, now)
		v.Age = &age
		v.IsNewDomain = age.Days < newDomainDays
		for _, d := range ageDeductions {
			if age.Days < d.under {
				score -= d.deduct
				break
			}
		}
	}
	if v.PrivacyProtected {
		score -= privacyDeduction
	}

	score = clamp(score)
	return Signal[RegistrationVerdict]{
		Score: score,
		Safe:  score >= 50,
		Raw:   v,
	}
}

// FallbackRegistration is the degraded registration signal. It synthesizes
// an unverified registration and expiration pair from a hash of the host,
// so the same host always degrades to the same values.
func FallbackRegistration(host string, now time.Time, err error) Signal[RegistrationVerdict] {
	h := fnv.New32a()
	h.Write([]byte(host))
	sum := h.Sum32()

	years := int(sum % 10)
	created := now.AddDate(-years, 0, 0)
	expires := now.AddDate(1+int(sum/10%5), 0, 0)
	age := ageOf(created, now)

	score := RegistrationFallbackScore
	if age.Days < newDomainDays {
		score = RegistrationFallbackNewScore
	}

	return Signal[RegistrationVerdict]{
		Score:    score,
		Safe:     score >= 50,
		Degraded: true,
		Raw: RegistrationVerdict{
			RegistrationDate: created.Format(dateLayout),
			ExpirationDate:   expires.Format(dateLayout),
			Registrar:        "Unknown (lookup failed)",
			Registrant: Registrant{
				Name:         unknownDate,
				Organization: unknownDate,
				Country:      unknownDate,
			},
			Age:         &age,
			IsNewDomain: age.Days < newDomainDays,
			Synthetic:   true,
			Error:       errString(err),
		},
	}
}

func ageOf(created, now time.Time) DomainAge {
	days := int(now.Sub(created).Hours() / 24)
	return DomainAge{
		Days:   days,
		Years:  days / 365,
		Months: (days / 30) % 12,
	}
}

func isPrivacyProtected(r Registrant) bool {
	name := strings.ToLower(r.Name)
	return name == "" ||
		strings.Contains(name, "privacy") ||
		strings.Contains(name, "protect") ||
		r.Email == ""
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return unknownDate
	}
	return t.UTC().Format(dateLayout)
}

func orUnknown(s string) string {
	if s == "" {
		return unknownDate
	}
	return s
}
