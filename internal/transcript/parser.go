// internal/transcript/parser.go
package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 转写稿行格式: [00:00:00 --> 00:00:01] 文本
var transcriptPattern = regexp.MustCompile(`^\[(\d{2}):(\d{2}):(\d{2})\s*-->\s*(\d{2}):(\d{2}):(\d{2})]\s*(.*)$`)

// ParsedLine 解析出的一行转写稿
type ParsedLine struct {
	StartSec int
	EndSec   int
	Text     string
}

// ParseTxt 解析转写稿文本，返回(start_sec, end_sec, text)列表
// 空行、#注释行、"生成时间"开头的行以及不匹配格式的行直接忽略，不报错
func ParseTxt(content string) []ParsedLine {
	var lines []ParsedLine
	for _, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "生成时间") {
			continue
		}

		match := transcriptPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		startSec := hmsToSeconds(match[1], match[2], match[3])
		endSec := hmsToSeconds(match[4], match[5], match[6])
		lines = append(lines, ParsedLine{
			StartSec: startSec,
			EndSec:   endSec,
			Text:     strings.TrimSpace(match[7]),
		})
	}
	return lines
}

func hmsToSeconds(hours, minutes, seconds string) int {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	return h*3600 + m*60 + s
}

// FormatHMS 将秒数格式化为 HH:MM:SS
func FormatHMS(totalSeconds int) string {
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// ParseHMS 解析 HH:MM:SS 或 MM:SS 格式的时间戳为秒数
func ParseHMS(timeStr string) (int, error) {
	parts := strings.Split(timeStr, ":")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, fmt.Errorf("无效的时间格式: %s", timeStr)
		}
		nums = append(nums, n)
	}

	switch len(nums) {
	case 2: // MM:SS
		return nums[0]*60 + nums[1], nil
	case 3: // HH:MM:SS
		return nums[0]*3600 + nums[1]*60 + nums[2], nil
	}
	return 0, fmt.Errorf("无效的时间格式: %s", timeStr)
}
