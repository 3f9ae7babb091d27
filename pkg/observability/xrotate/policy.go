package xrotate

import (
	"sort"
	"strings"
	"time"
)

// periodLayout 周期标识格式。字典序与时间顺序一致，清理逻辑依赖这一点。
const periodLayout = "2006-01-02"

// Policy 按自然日轮转的纯决策逻辑，不做任何 I/O。
//
// 文件名格式为 "{prefix}{YYYY-MM-DD}{suffix}"，日期按 Location 计算，
// Location 在构造时固定。零值 Policy 使用 UTC、空前后缀。
type Policy struct {
	prefix string
	suffix string
	loc    *time.Location
}

// NewPolicy 创建轮转策略。loc 为 nil 时使用 UTC。
func NewPolicy(prefix, suffix string, loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{prefix: prefix, suffix: suffix, loc: loc}
}

// Location 返回计算日期所用的时区。
func (p Policy) Location() *time.Location {
	if p.loc == nil {
		return time.UTC
	}
	return p.loc
}

// Period 返回 t 所在周期的标识（YYYY-MM-DD）。
func (p Policy) Period(t time.Time) string {
	return t.In(p.Location()).Format(periodLayout)
}

// ActiveFileName 返回 t 所在周期应写入的文件名（不含目录）。
//
// 同一天内的任意时刻返回相同结果。
func (p Policy) ActiveFileName(t time.Time) string {
	return p.prefix + p.Period(t) + p.suffix
}

// NextBoundary 返回 t 之后的第一个周期边界（下一个午夜）。
func (p Policy) NextBoundary(t time.Time) time.Time {
	lt := t.In(p.Location())
	y, m, d := lt.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, p.Location())
}

// ParseFileName 判断 name 是否符合命名约定，符合时返回对应周期的起始时间。
func (p Policy) ParseFileName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, p.prefix) {
		return time.Time{}, false
	}
	mid := name[len(p.prefix):]
	if !strings.HasSuffix(mid, p.suffix) {
		return time.Time{}, false
	}
	mid = mid[:len(mid)-len(p.suffix)]
	if len(mid) != len(periodLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(periodLayout, mid, p.Location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Matching 从 names 中挑出符合命名约定的文件，按时间从旧到新排序。
//
// 日期相同（理论上不会出现）时按文件名字典序排列。
func (p Policy) Matching(names []string) []string {
	type entry struct {
		name string
		at   time.Time
	}
	entries := make([]entry, 0, len(names))
	for _, n := range names {
		if at, ok := p.ParseFileName(n); ok {
			entries = append(entries, entry{name: n, at: at})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].at.Equal(entries[j].at) {
			return entries[i].at.Before(entries[j].at)
		}
		return entries[i].name < entries[j].name
	})

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// FilesToPrune 返回需要删除的文件。
//
// existing 必须已按从旧到新排序（见 [Policy.Matching]）。
// 返回 existing 中最旧的 max(0, len(existing)-maxCount) 个，maxCount 为负时按 0 处理。
// 返回的切片是新分配的，不与 existing 共享底层数组。
func FilesToPrune(existing []string, maxCount int) []string {
	if maxCount < 0 {
		maxCount = 0
	}
	n := len(existing) - maxCount
	if n <= 0 {
		return nil
	}
	out := make([]string, n)
	copy(out, existing[:n])
	return out
}
