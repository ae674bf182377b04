package gemini

import "testing"

func TestIsRPDQuotaError(t *testing.T) {
	tests := []struct {
		name string
		err  string
		want bool
	}{
		{
			"free tier daily metric",
			"Error 429: quota exceeded, quotaMetric: generate_content_free_tier_requests",
			true,
		},
		{
			"per-day limit name",
			"code: 429, limit GenerateRequestsPerDayPerProjectPerModel exceeded",
			true,
		},
		{
			"plain rate limit is not daily quota",
			"Error 429: Too Many Requests, please retry",
			false,
		},
		{
			"daily wording without 429",
			"daily limit reached",
			false,
		},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRPDQuotaError(tt.err); got != tt.want {
				t.Errorf("isRPDQuotaError(%q) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorClassifiers(t *testing.T) {
	// Обычный 429 уходит в ветку RPM/TPM, а не в дневную квоту
	rpm := "Error 429: Too Many Requests"
	if isRPDQuotaError(rpm) {
		t.Error("plain 429 classified as daily quota")
	}
	if !isRateLimitError(rpm) {
		t.Error("plain 429 not classified as rate limit")
	}

	// Дневная квота не должна попадать в rate limit
	rpd := "Error 429: generate_content_free_tier_requests exhausted"
	if isRateLimitError(rpd) {
		t.Error("daily quota classified as retryable rate limit")
	}

	if !isServiceUnavailableError("Error 503: model overloaded") {
		t.Error("503 not classified as service unavailable")
	}
	if !isTemporaryError("Error 502: bad gateway") {
		t.Error("502 not classified as temporary")
	}
	if isTemporaryError("Error 400: invalid argument") {
		t.Error("400 classified as temporary")
	}
	if !isQuotaExceededError("Error 403: quota exceeded for project") {
		t.Error("403 quota error not classified")
	}
}
