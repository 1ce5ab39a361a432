package repository

import (
	"reflect"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		status string
		t      Transition
		want   bool
	}{
		{entity.WOStatusDraft, TransitionRelease, true},
		{entity.WOStatusReleased, TransitionRelease, false},
		{entity.WOStatusReleased, TransitionStart, true},
		{entity.WOStatusDraft, TransitionStart, false},
		{entity.WOStatusInProgress, TransitionComplete, true},
		{entity.WOStatusReleased, TransitionComplete, false},
		{entity.WOStatusInProgress, TransitionCancel, true},
		{entity.WOStatusCompleted, TransitionCancel, false},
		{entity.WOStatusDraft, Transition("archive"), false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.status, tc.t); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.status, tc.t, got, tc.want)
		}
	}
}

func TestAvailableTransitions(t *testing.T) {
	if got := Available(entity.WOStatusDraft); !reflect.DeepEqual(got, []Transition{TransitionRelease, TransitionCancel}) {
		t.Errorf("draft = %v", got)
	}
	if got := Available(entity.WOStatusCancelled); len(got) != 0 {
		t.Errorf("cancelled = %v", got)
	}
	if to, ok := TargetStatus(TransitionStart); !ok || to != entity.WOStatusInProgress {
		t.Errorf("TargetStatus(start) = %q, %v", to, ok)
	}
}

func TestActiveFlagNormalization(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
		ok   bool
	}{
		{true, "1", true},
		{false, "0", true},
		{1, "1", true},
		{int64(0), "0", true},
		{float64(1), "1", true},
		{"true", "1", true},
		{"0", "0", true},
		{"maybe", "", false},
		{nil, "", false},
	}
	for _, tc := range cases {
		got, ok := activeFlag(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("activeFlag(%#v) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
