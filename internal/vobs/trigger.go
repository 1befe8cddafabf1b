package vobs

import (
	"fmt"

	"github.com/samcharles93/zenworld/pkg/zen"
)

// Trigger holds the fields shared by the zCTrigger family plus the
// type-specific extras of its known subclasses.
type Trigger struct {
	Target             string
	Flags              uint8
	FilterFlags        uint8
	VobTarget          string
	MaxActivationCount int32
	RetriggerDelay     float32
	DamageThreshold    float32
	FireDelay          float32

	// oCTriggerScript
	Function string

	// oCTriggerChangeLevel
	LevelName    string
	StartVobName string

	// zCTriggerList
	ListMode    uint32
	ListTargets []ListTarget

	// zCTriggerWorldStart
	FireOnce bool

	// zCMover
	Mover *Mover
}

// Mover is the keyframe animation data of a zCMover.
type Mover struct {
	Behavior           uint32
	TouchBlockerDamage float32
	StayOpenTime       float32
	Locked             bool
	AutoLink           bool
	AutoRotate         bool // Gothic 2 only
	Speed              float32
	LerpMode           uint32
	SpeedMode          uint32
	Keyframes          []Keyframe

	SfxOpenStart  string
	SfxOpenEnd    string
	SfxMoving     string
	SfxCloseStart string
	SfxCloseEnd   string
	SfxLock       string
	SfxUnlock     string
	SfxUseLocked  string
}

// Keyframe is one animation sample: a position and a rotation quaternion.
type Keyframe struct {
	Position zen.Vec3
	Rotation [4]float32
}

// ListTarget is one entry of a zCTriggerList.
type ListTarget struct {
	Target    string
	FireDelay float32
}

func parseTyped(v *Vob, r *zen.Reader, rev zen.Revision) error {
	switch leafClass(v.ClassName) {
	case "zCVob":
		return nil
	case "zCTrigger":
		v.Trigger = &Trigger{}
		return parseTrigger(v.Trigger, r)
	case "oCTriggerScript":
		v.Trigger = &Trigger{}
		if err := parseTrigger(v.Trigger, r); err != nil {
			return err
		}
		var err error
		v.Trigger.Function, err = r.ReadString() // scriptFunc
		return err
	case "oCTriggerChangeLevel":
		v.Trigger = &Trigger{}
		if err := parseTrigger(v.Trigger, r); err != nil {
			return err
		}
		var err error
		if v.Trigger.LevelName, err = r.ReadString(); err != nil { // levelName
			return err
		}
		v.Trigger.StartVobName, err = r.ReadString() // startVobName
		return err
	case "zCTriggerList":
		v.Trigger = &Trigger{}
		return parseTriggerList(v.Trigger, r)
	case "zCMover":
		v.Trigger = &Trigger{}
		return parseMover(v.Trigger, r, rev)
	case "zCTriggerWorldStart":
		v.Trigger = &Trigger{}
		var err error
		if v.Trigger.Target, err = r.ReadString(); err != nil { // triggerTarget
			return err
		}
		v.Trigger.FireOnce, err = r.ReadBool() // fireOnlyFirstTime
		return err
	case "zCTriggerUntouch":
		v.Trigger = &Trigger{}
		var err error
		v.Trigger.Target, err = r.ReadString() // triggerTarget
		return err
	default:
		// Unknown class: base fields only, remainder handled by the skip in
		// ParseTree.
		return nil
	}
}

func parseTrigger(t *Trigger, r *zen.Reader) error {
	var err error
	if t.Target, err = r.ReadString(); err != nil { // triggerTarget
		return err
	}
	flags, err := r.ReadRaw() // flags
	if err != nil {
		return err
	}
	if len(flags) > 0 {
		t.Flags = flags[0]
	}
	filter, err := r.ReadRaw() // filterFlags
	if err != nil {
		return err
	}
	if len(filter) > 0 {
		t.FilterFlags = filter[0]
	}
	if t.VobTarget, err = r.ReadString(); err != nil { // respondToVobName
		return err
	}
	if t.MaxActivationCount, err = r.ReadInt(); err != nil { // numCanBeActivated
		return err
	}
	if t.RetriggerDelay, err = r.ReadFloat(); err != nil { // retriggerWaitSec
		return err
	}
	if t.DamageThreshold, err = r.ReadFloat(); err != nil { // damageThreshold
		return err
	}
	t.FireDelay, err = r.ReadFloat() // fireDelaySec
	return err
}

func parseMover(t *Trigger, r *zen.Reader, rev zen.Revision) error {
	if err := parseTrigger(t, r); err != nil {
		return err
	}
	m := &Mover{}
	t.Mover = m

	var err error
	if m.Behavior, err = r.ReadEnum(); err != nil { // moverBehavior
		return err
	}
	if m.TouchBlockerDamage, err = r.ReadFloat(); err != nil { // touchBlockerDamage
		return err
	}
	if m.StayOpenTime, err = r.ReadFloat(); err != nil { // stayOpenTimeSec
		return err
	}
	if m.Locked, err = r.ReadBool(); err != nil { // moverLocked
		return err
	}
	if m.AutoLink, err = r.ReadBool(); err != nil { // autoLinkEnabled
		return err
	}
	if rev == zen.RevisionGothic2 {
		if m.AutoRotate, err = r.ReadBool(); err != nil { // autoRotate
			return err
		}
	}

	keyframeCount, err := r.ReadWord() // numKeyframes
	if err != nil {
		return err
	}
	if keyframeCount > 0 {
		if m.Speed, err = r.ReadFloat(); err != nil { // moveSpeed
			return err
		}
		if m.LerpMode, err = r.ReadEnum(); err != nil { // posLerpType
			return err
		}
		if m.SpeedMode, err = r.ReadEnum(); err != nil { // speedType
			return err
		}
		raw, err := r.ReadRaw() // keyframes, 7 floats each
		if err != nil {
			return err
		}
		if len(raw) < int(keyframeCount)*28 {
			return fmt.Errorf("%w: keyframe entry holds %d bytes, need %d",
				zen.ErrMalformed, len(raw), int(keyframeCount)*28)
		}
		samples := zen.NewBuffer(raw)
		m.Keyframes = make([]Keyframe, 0, keyframeCount)
		for i := 0; i < int(keyframeCount); i++ {
			var kf Keyframe
			if kf.Position.X, err = samples.ReadF32(); err != nil {
				return err
			}
			if kf.Position.Y, err = samples.ReadF32(); err != nil {
				return err
			}
			if kf.Position.Z, err = samples.ReadF32(); err != nil {
				return err
			}
			for j := range kf.Rotation {
				if kf.Rotation[j], err = samples.ReadF32(); err != nil {
					return err
				}
			}
			m.Keyframes = append(m.Keyframes, kf)
		}
	}

	for _, dst := range []*string{
		&m.SfxOpenStart, &m.SfxOpenEnd, &m.SfxMoving, &m.SfxCloseStart,
		&m.SfxCloseEnd, &m.SfxLock, &m.SfxUnlock, &m.SfxUseLocked,
	} {
		if *dst, err = r.ReadString(); err != nil {
			return err
		}
	}
	return nil
}

func parseTriggerList(t *Trigger, r *zen.Reader) error {
	if err := parseTrigger(t, r); err != nil {
		return err
	}
	var err error
	if t.ListMode, err = r.ReadEnum(); err != nil { // listProcess
		return err
	}
	count, err := r.ReadByte() // numTarget
	if err != nil {
		return err
	}
	t.ListTargets = make([]ListTarget, 0, count)
	for i := 0; i < int(count); i++ {
		var entry ListTarget
		if entry.Target, err = r.ReadString(); err != nil {
			return err
		}
		if entry.FireDelay, err = r.ReadFloat(); err != nil {
			return err
		}
		t.ListTargets = append(t.ListTargets, entry)
	}
	return nil
}
