package matching

// The tag lexicon classifies lifestyle tags into positive and negative
// buckets. Tags outside both buckets are neutral and do not move the
// tag score. The vocabulary matches what the questionnaire produces.

var positiveTags = map[string]struct{}{
	"安静":     {},
	"整洁":     {},
	"早睡":     {},
	"适度噪音":   {},
	"不在宿舍用餐": {},
	"集体消费":   {},
	"爱学习":    {},
	"友善":     {},
	"负责任":    {},
	"守时":     {},
	"环保":     {},
	"不吸烟":    {},
}

var negativeTags = map[string]struct{}{
	"吵闹":    {},
	"邋遢":    {},
	"随意":    {},
	"晚睡":    {},
	"作息不规律": {},
	"宿舍用餐":  {},
	"独立消费":  {},
}

// IsPositiveTag reports whether the tag raises the compatibility score.
func IsPositiveTag(name string) bool {
	_, ok := positiveTags[name]
	return ok
}

// IsNegativeTag reports whether the tag lowers the compatibility score.
func IsNegativeTag(name string) bool {
	_, ok := negativeTags[name]
	return ok
}
