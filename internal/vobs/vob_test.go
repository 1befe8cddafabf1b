package vobs

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/samcharles93/zenworld/pkg/zen"
)

func openArchive(t *testing.T, body ...string) *zen.Reader {
	t.Helper()
	text := strings.Join([]string{
		"ZenGin Archive",
		"ver 1",
		"zCArchiverGeneric",
		"ASCII",
		"saveGame 0",
		"END",
		"objects 0",
		"END",
		"",
	}, "\n") + "\n" + strings.Join(body, "\n") + "\n"
	r, err := zen.OpenReader(zen.NewBuffer([]byte(text)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	return r
}

func baseVobLines(name, class string, gothic2 bool) []string {
	lines := []string{
		fmt.Sprintf("[%s %s 0 1]", name, class),
		"presetName=string:",
		"bbox3DWS=rawFloat:-10 -10 -10 10 10 10",
		"trafoOSToWSRot=raw:",
		"trafoOSToWSPos=rawFloat:1 2 3",
		fmt.Sprintf("vobName=string:%s", name),
		"visual=string:MODEL.3DS",
		"showVisual=bool:1",
		"visualCamAlign=enum:0",
		"cdStatic=bool:1",
		"cdDyn=bool:0",
		"staticVob=bool:1",
	}
	if gothic2 {
		lines = append(lines,
			"visualAniMode=enum:2",
			"visualAniModeStrength=float:0.5",
			"vobFarClipZScale=float:0.75",
		)
	}
	return lines
}

func triggerLines() []string {
	return []string{
		"triggerTarget=string:EVT_DOOR",
		"flags=raw:03",
		"filterFlags=raw:00",
		"respondToVobName=string:",
		"numCanBeActivated=int:-1",
		"retriggerWaitSec=float:0",
		"damageThreshold=float:0",
		"fireDelaySec=float:1.5",
	}
}

func TestParseTreeBaseVob(t *testing.T) {
	t.Parallel()

	body := append(baseVobLines("FP_ROAM", "zCVob", false), "[]", "childs=int:0")
	r := openArchive(t, body...)

	v, err := ParseTree(r, zen.RevisionGothic1)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v == nil {
		t.Fatalf("vob is nil")
	}
	if v.Name != "FP_ROAM" || v.ClassName != "zCVob" {
		t.Fatalf("identity = %q %q", v.Name, v.ClassName)
	}
	if v.BBox != [6]float32{-10, -10, -10, 10, 10, 10} {
		t.Fatalf("bbox = %v", v.BBox)
	}
	if v.Position != (zen.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("position = %+v", v.Position)
	}
	if v.Visual != "MODEL.3DS" || !v.ShowVisual || !v.CDStatic || v.CDDynamic || !v.Static {
		t.Fatalf("base fields = %+v", v)
	}
	if v.Trigger != nil || len(v.Children) != 0 {
		t.Fatalf("unexpected trigger/children: %+v", v)
	}
}

func TestParseTreeGothic2Fields(t *testing.T) {
	t.Parallel()

	body := append(baseVobLines("VOB", "zCVob", true), "[]", "childs=int:0")
	r := openArchive(t, body...)

	v, err := ParseTree(r, zen.RevisionGothic2)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.VisualAniMode != 2 || v.VisualAniModeStrength != 0.5 || v.FarClipScale != 0.75 {
		t.Fatalf("gothic2 fields = %+v", v)
	}
}

func TestParseTreeUnnamedHeaderUsesVobName(t *testing.T) {
	t.Parallel()

	body := []string{
		"[% zCVob 0 1]",
		"presetName=string:",
		"bbox3DWS=rawFloat:0 0 0 0 0 0",
		"trafoOSToWSRot=raw:",
		"trafoOSToWSPos=rawFloat:0 0 0",
		"vobName=string:SPAWN_OW_1",
		"visual=string:",
		"showVisual=bool:0",
		"visualCamAlign=enum:0",
		"cdStatic=bool:0",
		"cdDyn=bool:0",
		"staticVob=bool:0",
		"[]",
		"childs=int:0",
	}
	r := openArchive(t, body...)

	v, err := ParseTree(r, zen.RevisionGothic1)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.Name != "SPAWN_OW_1" {
		t.Fatalf("name = %q, want SPAWN_OW_1", v.Name)
	}
}

func TestParseTreeDropsEmptySlots(t *testing.T) {
	t.Parallel()

	var body []string
	body = append(body, baseVobLines("PARENT", "zCVob", false)...)
	body = append(body, "[]", "childs=int:3")
	// child A
	body = append(body, baseVobLines("A", "zCVob", false)...)
	body = append(body, "[]", "childs=int:0")
	// empty slot
	body = append(body, "[% % 0 2]", "[]", "childs=int:0")
	// child B
	body = append(body, baseVobLines("B", "zCVob", false)...)
	body = append(body, "[]", "childs=int:0")

	r := openArchive(t, body...)
	v, err := ParseTree(r, zen.RevisionGothic1)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(v.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(v.Children))
	}
	if v.Children[0].Name != "A" || v.Children[1].Name != "B" {
		t.Fatalf("child order = %q, %q", v.Children[0].Name, v.Children[1].Name)
	}
}

func TestParseTreeTriggerScript(t *testing.T) {
	t.Parallel()

	body := baseVobLines("EVT", "oCTriggerScript:zCTrigger:zCVob", false)
	body = append(body, triggerLines()...)
	body = append(body, "scriptFunc=string:EVT_DOOR_FUNC", "[]", "childs=int:0")

	r := openArchive(t, body...)
	v, err := ParseTree(r, zen.RevisionGothic1)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tr := v.Trigger
	if tr == nil {
		t.Fatalf("no trigger data")
	}
	if tr.Target != "EVT_DOOR" || tr.Flags != 3 || tr.MaxActivationCount != -1 {
		t.Fatalf("trigger = %+v", tr)
	}
	if tr.FireDelay != 1.5 || tr.Function != "EVT_DOOR_FUNC" {
		t.Fatalf("trigger = %+v", tr)
	}
}

func TestParseTreeTriggerList(t *testing.T) {
	t.Parallel()

	body := baseVobLines("LIST", "zCTriggerList:zCTrigger:zCVob", false)
	body = append(body, triggerLines()...)
	body = append(body,
		"listProcess=enum:1",
		"numTarget=byte:2",
		"triggerTarget0=string:T0",
		"fireDelay0=float:0",
		"triggerTarget1=string:T1",
		"fireDelay1=float:2",
		"[]", "childs=int:0",
	)

	r := openArchive(t, body...)
	v, err := ParseTree(r, zen.RevisionGothic1)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tr := v.Trigger
	if tr == nil || tr.ListMode != 1 || len(tr.ListTargets) != 2 {
		t.Fatalf("trigger list = %+v", tr)
	}
	if tr.ListTargets[1] != (ListTarget{Target: "T1", FireDelay: 2}) {
		t.Fatalf("second target = %+v", tr.ListTargets[1])
	}
}

func TestParseTreeMover(t *testing.T) {
	t.Parallel()

	var kf []byte
	for i := 1; i <= 7; i++ {
		kf = binary.LittleEndian.AppendUint32(kf, math.Float32bits(float32(i)))
	}

	body := baseVobLines("DOOR", "zCMover:zCTrigger:zCVob", true)
	body = append(body, triggerLines()...)
	body = append(body,
		"moverBehavior=enum:2",
		"touchBlockerDamage=float:0",
		"stayOpenTimeSec=float:3",
		"moverLocked=bool:1",
		"autoLinkEnabled=bool:0",
		"autoRotate=bool:1",
		"numKeyframes=word:1",
		"moveSpeed=float:0.2",
		"posLerpType=enum:1",
		"speedType=enum:0",
		"keyframes=raw:"+hex.EncodeToString(kf),
		"sfxOpenStart=string:DOOR_OPEN",
		"sfxOpenEnd=string:",
		"sfxMoving=string:",
		"sfxCloseStart=string:DOOR_CLOSE",
		"sfxCloseEnd=string:",
		"sfxLock=string:",
		"sfxUnlock=string:",
		"sfxUseLocked=string:",
		"[]", "childs=int:0",
	)

	r := openArchive(t, body...)
	v, err := ParseTree(r, zen.RevisionGothic2)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m := v.Trigger.Mover
	if m == nil {
		t.Fatalf("no mover data")
	}
	if m.Behavior != 2 || !m.Locked || !m.AutoRotate || m.StayOpenTime != 3 {
		t.Fatalf("mover = %+v", m)
	}
	if len(m.Keyframes) != 1 {
		t.Fatalf("keyframes = %d", len(m.Keyframes))
	}
	if m.Keyframes[0].Position != (zen.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("keyframe position = %+v", m.Keyframes[0].Position)
	}
	if m.Keyframes[0].Rotation != [4]float32{4, 5, 6, 7} {
		t.Fatalf("keyframe rotation = %+v", m.Keyframes[0].Rotation)
	}
	if m.SfxOpenStart != "DOOR_OPEN" || m.SfxCloseStart != "DOOR_CLOSE" {
		t.Fatalf("mover sfx = %+v", m)
	}
}

func TestParseTreeUnknownClassKeepsBase(t *testing.T) {
	t.Parallel()

	body := baseVobLines("LIGHT", "zCVobLight:zCVob", false)
	body = append(body,
		"lightColor=string:255 255 255", // unknown payload, must be skipped
		"range=float:1000",
		"[]", "childs=int:1",
	)
	body = append(body, baseVobLines("CHILD", "zCVob", false)...)
	body = append(body, "[]", "childs=int:0")

	r := openArchive(t, body...)
	v, err := ParseTree(r, zen.RevisionGothic1)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.Trigger != nil {
		t.Fatalf("unknown class got trigger data")
	}
	if len(v.Children) != 1 || v.Children[0].Name != "CHILD" {
		t.Fatalf("children = %+v", v.Children)
	}
}
