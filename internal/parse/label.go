package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	seqRe  = regexp.MustCompile(`-(\d+)\s*$`)
	roomRe = regexp.MustCompile(`(\d+)\s*(?:室|房)?\s*$`)
	wsRe   = regexp.MustCompile(`\s+`)
)

// ParsedLabel holds the structured data parsed from a bed's display label.
type ParsedLabel struct {
	Building string
	Room     int
	Seq      int
}

// ParseBedLabel extracts building, room and bed sequence number from a raw
// label such as "紫荆6栋-302-1". roomCode is used as a fallback when the
// label itself carries no room number.
func ParseBedLabel(raw string, roomCode string) (ParsedLabel, error) {
	// 预处理：把 # 当成分隔符而不是删除，以免数字粘连
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "#", " ")
	s = strings.TrimSpace(wsRe.ReplaceAllString(s, " "))

	// 1) 先取末尾的 "-床位编号"，并把整段移除
	seq := 0
	if loc := seqRe.FindStringSubmatchIndex(s); loc != nil {
		if n, err := strconv.Atoi(s[loc[2]:loc[3]]); err == nil {
			seq = n
			s = strings.TrimSpace(s[:loc[0]])
		}
	}
	s = strings.TrimSuffix(s, "-")

	// 2) 从主体末尾取房间号，并把这段从楼名里删掉
	room := 0
	building := s
	if loc := roomRe.FindStringSubmatchIndex(s); loc != nil {
		if n, err := strconv.Atoi(s[loc[2]:loc[3]]); err == nil {
			room = n
			building = strings.TrimSpace(strings.TrimSuffix(s[:loc[0]], "-"))
		}
	}

	// 3) 主体没取到房间号时，用 roomCode 兜底
	if room == 0 && roomCode != "" {
		if r, err := strconv.Atoi(roomCode); err == nil {
			room = r
			tailRe := regexp.MustCompile(`\s*` + regexp.QuoteMeta(roomCode) + `\s*(?:室|房)?\s*$`)
			building = strings.TrimSpace(tailRe.ReplaceAllString(building, ""))
		}
	}

	if room == 0 {
		return ParsedLabel{}, fmt.Errorf("unable to parse room from label: %q", raw)
	}
	if building == "" {
		return ParsedLabel{}, fmt.Errorf("unable to parse building from label: %q", raw)
	}

	// 没有显式床位编号就保持为 0
	return ParsedLabel{Building: building, Room: room, Seq: seq}, nil
}
