package repository

import "github.com/bitfantasy/nimo-mes/internal/mes/entity"

// Transition 工单状态迁移名称，即 POST /work-orders/{id}/{transition} 的最后一段
type Transition string

const (
	TransitionRelease  Transition = "release"
	TransitionStart    Transition = "start"
	TransitionComplete Transition = "complete"
	TransitionCancel   Transition = "cancel"
)

// Transitions 全部迁移，按常规流转顺序
var Transitions = []Transition{TransitionRelease, TransitionStart, TransitionComplete, TransitionCancel}

// transitionTable 迁移 -> 允许的起始状态 -> 目标状态
var transitionTable = map[Transition]struct {
	from []string
	to   string
}{
	TransitionRelease:  {from: []string{entity.WOStatusDraft}, to: entity.WOStatusReleased},
	TransitionStart:    {from: []string{entity.WOStatusReleased}, to: entity.WOStatusInProgress},
	TransitionComplete: {from: []string{entity.WOStatusInProgress}, to: entity.WOStatusCompleted},
	TransitionCancel: {
		from: []string{entity.WOStatusDraft, entity.WOStatusReleased, entity.WOStatusInProgress},
		to:   entity.WOStatusCancelled,
	},
}

// Valid 是否为已知迁移
func (t Transition) Valid() bool {
	_, ok := transitionTable[t]
	return ok
}

// CanTransition 按后端规则判断 status 能否执行迁移 t，供界面置灰操作
// WorkOrderRepository 不在调用前检查，前置条件由后端裁决
func CanTransition(status string, t Transition) bool {
	rule, ok := transitionTable[t]
	if !ok {
		return false
	}
	for _, s := range rule.from {
		if s == status {
			return true
		}
	}
	return false
}

// TargetStatus 迁移成功后的状态
func TargetStatus(t Transition) (string, bool) {
	rule, ok := transitionTable[t]
	return rule.to, ok
}

// Available 当前状态下可执行的迁移
func Available(status string) []Transition {
	var out []Transition
	for _, t := range Transitions {
		if CanTransition(status, t) {
			out = append(out, t)
		}
	}
	return out
}
