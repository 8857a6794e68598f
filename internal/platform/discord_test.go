package platform

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestIsUnknownMember(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil message", &discordgo.RESTError{}, false},
		{"plain error", errors.New("boom"), false},
		{"unknown member", &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMember}}, true},
		{"unknown user", &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownUser}}, true},
		{"other code", &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingAccess}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUnknownMember(tt.err); got != tt.want {
				t.Errorf("isUnknownMember() = %v, want %v", got, tt.want)
			}
		})
	}
}
