package domain

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		notice  Notice
		wantErr error
	}{
		{
			name:   "valid notice",
			notice: Notice{RecipientID: " member-1 ", Topic: " member.approved ", Subject: " Approved "},
		},
		{
			name:    "missing recipient",
			notice:  Notice{Topic: TopicMemberApproved},
			wantErr: ErrEmptyRecipient,
		},
		{
			name:    "missing topic",
			notice:  Notice{RecipientID: "member-1"},
			wantErr: ErrEmptyTopic,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			normalized, err := Normalize(tc.notice)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if normalized.RecipientID != "member-1" || normalized.Topic != "member.approved" || normalized.Subject != "Approved" {
				t.Fatalf("fields not trimmed: %+v", normalized)
			}
		})
	}
}
