// internal/transcript/parser_test.go
package transcript

import "testing"

func TestParseTxt(t *testing.T) {
	content := "# 注释行\n" +
		"生成时间: 2026-01-01 12:00:00\n" +
		"\n" +
		"[00:00:00 --> 00:00:01] 大家好\n" +
		"[00:00:05 --> 00:00:09]   今天聊2026年的新趋势  \n" +
		"这一行没有时间戳，应该被忽略\n" +
		"[01:02:03 --> 01:02:10] 收盘总结\n"

	lines := ParseTxt(content)
	if len(lines) != 3 {
		t.Fatalf("期望解析出3行，实际得到%d行", len(lines))
	}

	expected := []ParsedLine{
		{StartSec: 0, EndSec: 1, Text: "大家好"},
		{StartSec: 5, EndSec: 9, Text: "今天聊2026年的新趋势"},
		{StartSec: 3723, EndSec: 3730, Text: "收盘总结"},
	}
	for i, want := range expected {
		if lines[i] != want {
			t.Errorf("第%d行解析结果不符: got %+v, want %+v", i, lines[i], want)
		}
	}
}

func TestParseTxtEmpty(t *testing.T) {
	if lines := ParseTxt(""); len(lines) != 0 {
		t.Errorf("空输入应返回0行，实际得到%d行", len(lines))
	}
	if lines := ParseTxt("随便一段没有时间戳的文本"); len(lines) != 0 {
		t.Errorf("无匹配行时应返回0行，实际得到%d行", len(lines))
	}
}

func TestFormatHMS(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{3723, "01:02:03"},
		{36000, "10:00:00"},
	}
	for _, c := range cases {
		if got := FormatHMS(c.seconds); got != c.want {
			t.Errorf("FormatHMS(%d) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

func TestParseHMS(t *testing.T) {
	cases := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"00:00:00", 0, false},
		{"01:02:03", 3723, false},
		{"12:34", 754, false}, // MM:SS
		{"99:59:59", 359999, false},
		{"12", 0, true},
		{"01:02:03:04", 0, true},
		{"aa:bb:cc", 0, true},
	}
	for _, c := range cases {
		got, err := ParseHMS(c.input)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseHMS(%q) 应该返回错误", c.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHMS(%q) 返回错误: %v", c.input, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseHMS(%q) = %d, want %d", c.input, got, c.want)
		}
	}
}

func TestParseHMSRoundTrip(t *testing.T) {
	for _, sec := range []int{0, 1, 61, 3600, 3723, 86399} {
		got, err := ParseHMS(FormatHMS(sec))
		if err != nil {
			t.Fatalf("ParseHMS(FormatHMS(%d)) 返回错误: %v", sec, err)
		}
		if got != sec {
			t.Errorf("ParseHMS(FormatHMS(%d)) = %d", sec, got)
		}
	}
}
