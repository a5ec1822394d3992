// internal/timeline/timeline.go
package timeline

import (
	"sort"

	"github.com/hualuo/chaptergen/internal/models"
)

// NearestTime 返回candidates中与target绝对差值最小的时间点
// 差值相同时，取切片顺序中先出现的那个（first found wins）
// candidates为空时原样返回target
func NearestTime(target int, candidates []int) int {
	if len(candidates) == 0 {
		return target
	}

	closest := candidates[0]
	for _, c := range candidates[1:] {
		if abs(c-target) < abs(closest-target) {
			closest = c
		}
	}
	return closest
}

// LastLineEnd 返回转写稿最后一个时间点：所有行的结束时间
// （缺失结束时间则用开始时间）中的最大值。lines为空时返回false
func LastLineEnd(lines []models.TranscriptLine) (int, bool) {
	if len(lines) == 0 {
		return 0, false
	}

	last := 0
	for i, line := range lines {
		end := line.StartSec
		if line.EndSec != nil && *line.EndSec > end {
			end = *line.EndSec
		}
		if i == 0 || end > last {
			last = end
		}
	}
	return last, true
}

// EffectiveEnd 计算章节用于显示/区间高亮的有效结束时间
//
// 取值顺序：
//  1. 章节自身的end_sec（如已设置）
//  2. 按start_sec排序后紧随其后的章节的start_sec
//  3. 转写稿最后一行的结束时间（缺失则用其开始时间）
//  4. 章节自身的start_sec
//
// 之后若存在下一章节，将结果向上钳制到下一章节的start_sec（取max），
// 保证显示的区间不会在下一章节开始前就截断，即使存储的end_sec更早
func EffectiveEnd(chapter models.Chapter, chapters []models.Chapter, lines []models.TranscriptLine) int {
	next, hasNext := nextChapter(chapter, chapters)

	var end int
	switch {
	case chapter.EndSec != nil:
		end = *chapter.EndSec
	case hasNext:
		end = next.StartSec
	default:
		if lastEnd, ok := LastLineEnd(lines); ok {
			end = lastEnd
		} else {
			end = chapter.StartSec
		}
	}

	if hasNext && next.StartSec > end {
		end = next.StartSec
	}
	return end
}

// nextChapter 返回按start_sec排序后紧跟在chapter之后的章节
func nextChapter(chapter models.Chapter, chapters []models.Chapter) (models.Chapter, bool) {
	if len(chapters) < 2 {
		return models.Chapter{}, false
	}

	sorted := make([]models.Chapter, len(chapters))
	copy(sorted, chapters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartSec < sorted[j].StartSec
	})

	for i, ch := range sorted {
		if ch.ID == chapter.ID {
			if i+1 < len(sorted) {
				return sorted[i+1], true
			}
			return models.Chapter{}, false
		}
	}

	// chapter不在集合中时，退化为第一个开始时间更晚的章节
	for _, ch := range sorted {
		if ch.StartSec > chapter.StartSec {
			return ch, true
		}
	}
	return models.Chapter{}, false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
