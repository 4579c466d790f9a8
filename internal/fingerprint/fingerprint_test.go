package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintDropsPunctuationAndWhitespace(t *testing.T) {
	cases := map[string]string{
		"本项目 采用，分布式 架构。":         "本项目采用分布式架构",
		"Hello, World!  v2.0":     "HelloWorldv20",
		"（1）供货期：30 日历天":          "1供货期30日历天",
		"":                        "",
		"   \t\n":                 "",
		"联系人_张三 / 13912345678": "联系人_张三13912345678",
	}
	for in, want := range cases {
		assert.Equal(t, want, Fingerprint(in), "input %q", in)
	}
}

func TestFingerprintIdempotent(t *testing.T) {
	for _, in := range []string{
		"本项目采用 Kubernetes 集群部署，节点数量≥3。",
		"He said: \"Quote.\"",
		"①②③ 全角　空格",
	} {
		once := Fingerprint(in)
		assert.Equal(t, once, Fingerprint(once))
	}
}

func TestSkeletonKeepsOnlyIdeographs(t *testing.T) {
	assert.Equal(t, "屏幕尺寸英寸", Skeleton("(10)屏幕尺寸: 14 英寸"))
	assert.Equal(t, "", Skeleton("SQL Server 2019"))
}

func TestStripNumbering(t *testing.T) {
	cases := map[string]string{
		"2.3 通用条款":   "通用条款",
		"12. 通用条款":   "通用条款",
		"（4）质保期三年":   "质保期三年",
		"(4) 质保期三年":  "质保期三年",
		"三、技术方案":     "技术方案",
		"没有编号的段落":    "没有编号的段落",
		"1、服务承诺":     "服务承诺",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripNumbering(in), "input %q", in)
	}
}

func TestSignificant(t *testing.T) {
	rules := DefaultRules()

	assert.False(t, Significant(Fingerprint("投标函"), rules))
	assert.False(t, Significant(Fingerprint("法定代表人授权委托书"), rules))
	assert.False(t, Significant(Fingerprint("短句子。"), rules))
	assert.False(t, Significant(Fingerprint("0123456789"), rules), "ten runes is not enough")
	assert.False(t, Significant(Fingerprint("2024-01-01 12:30:45"), rules), "numeric-only fingerprint")
	assert.True(t, Significant(Fingerprint("20240101123045678901"), rules), "long numeric run is kept")
	assert.True(t, Significant(Fingerprint("本项目采用分布式微服务架构进行部署。"), rules))
}

func TestSignificantRespectsCustomRules(t *testing.T) {
	rules := Rules{MinLength: 2, NumericMinLength: 2}
	assert.False(t, Significant(Fingerprint("投标函"), rules), "boilerplate is rejected regardless of length")
	assert.True(t, Significant(Fingerprint("质保三年"), rules))
}
