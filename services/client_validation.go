package services

import (
	"regexp"
	"strings"
)

var (
	nonDigit     = regexp.MustCompile(`\D`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Digits strips everything but 0-9 from s.
func Digits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// ValidateCNPJ validates a Brazilian company tax id: 14 digits, not all the
// same, with both check digits correct. Punctuation is ignored.
func ValidateCNPJ(cnpj string) bool {
	d := Digits(cnpj)
	if strings.TrimSpace(cnpj) == "" {
		return true
	}
	if len(d) != 14 || strings.Count(d, d[:1]) == 14 {
		return false
	}
	return cnpjCheckDigit(d[:12]) == d[12] && cnpjCheckDigit(d[:13]) == d[13]
}

// cnpjCheckDigit computes the next check digit of the given digit prefix.
func cnpjCheckDigit(prefix string) byte {
	sum := 0
	weight := len(prefix) - 7
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * weight
		weight--
		if weight < 2 {
			weight = 9
		}
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + 11 - r)
}

// FormatCNPJ renders 14 digits as 00.000.000/0000-00. Other input is returned
// trimmed.
func FormatCNPJ(cnpj string) string {
	d := Digits(cnpj)
	if len(d) != 14 {
		return strings.TrimSpace(cnpj)
	}
	return d[:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:]
}

// ValidatePhone validates a Brazilian phone number with area code: 10 or 11
// digits once punctuation and an optional +55 prefix are removed.
func ValidatePhone(phone string) bool {
	if strings.TrimSpace(phone) == "" {
		return true
	}
	d := Digits(phone)
	if strings.HasPrefix(strings.TrimSpace(phone), "+55") {
		d = strings.TrimPrefix(d, "55")
	}
	return (len(d) == 10 || len(d) == 11) && d[0] != '0'
}

// ValidateEmail validates an email address format.
func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return true
	}
	return emailPattern.MatchString(email)
}

// ValidateClientFields checks required and format rules of a client and
// returns field -> message for every violation.
func ValidateClientFields(fields map[string]string) map[string]string {
	errors := make(map[string]string)

	for _, f := range ClientTemplateFields() {
		if f.Required && strings.TrimSpace(fields[f.Key]) == "" {
			errors[f.Key] = f.Label + " é obrigatório"
		}
	}
	if v := fields["cnpj"]; v != "" && !ValidateCNPJ(v) {
		errors["cnpj"] = "CNPJ inválido"
	}
	if v := fields["phone"]; v != "" && !ValidatePhone(v) {
		errors["phone"] = "Telefone inválido (esperado: DDD + número)"
	}
	if v := fields["email"]; v != "" && !ValidateEmail(v) {
		errors["email"] = "E-mail inválido"
	}

	return errors
}
