package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
)

func TestEventTypeFamily(t *testing.T) {
	cases := []struct {
		event  string
		family types.EventFamily
	}{
		{"ONTASKADD", types.FamilyTask},
		{"ONTASKUPDATE", types.FamilyTask},
		{"ONTASKDELETE", types.FamilyTask},
		{"ONTASKCOMMENTADD", types.FamilyComment},
		{"ONTASKCOMMENTUPDATE", types.FamilyComment},
		{"ONTASKCOMMENTDELETE", types.FamilyComment},
		{"ONUSERADD", types.FamilyUser},
		{"ONIMMESSAGEADD", types.FamilyChatMessage},
		{"ontaskcommentadd", types.FamilyComment},
		{"ONCALENDARENTRYADD", types.FamilyUnknown},
		{"", types.FamilyUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.event, func(t *testing.T) {
			gt.Value(t, types.EventType(tc.event).Family()).Equal(tc.family)
		})
	}
}

func TestEventTypeSuffix(t *testing.T) {
	gt.Bool(t, types.EventType("ONTASKADD").IsAdd()).True()
	gt.Bool(t, types.EventType("ONTASKADD").IsUpdate()).False()
	gt.Bool(t, types.EventType("ONTASKCOMMENTUPDATE").IsUpdate()).True()
	gt.Bool(t, types.EventType("ONTASKDELETE").IsDelete()).True()
	gt.Bool(t, types.EventType("ontaskdelete").IsDelete()).True()
}
