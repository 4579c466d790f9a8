package paragraph

import (
	"strings"
	"testing"

	"github.com/abner20953/bidding-data/internal/ingest"
)

func TestSegmentMergesWrappedLines(t *testing.T) {
	long := strings.Repeat("系统", 25)
	pages := []ingest.Page{
		{Number: 1, Text: "第一章 总则\n\n" + long + "\n均可单独部署与扩展。\n"},
	}

	paras := Segment(pages, DefaultShortLine)
	if len(paras) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %+v", len(paras), paras)
	}
	if paras[0].Text != "第一章 总则" {
		t.Fatalf("short header should stand alone, got %q", paras[0].Text)
	}
	if paras[1].Text != long+"均可单独部署与扩展。" {
		t.Fatalf("wrapped line not merged: %q", paras[1].Text)
	}
}

func TestSegmentKeepsPageOfFirstLine(t *testing.T) {
	long := strings.Repeat("投标人应当", 10)
	pages := []ingest.Page{
		{Number: 3, Text: long},
		{Number: 4, Text: "按照招标文件的要求编制投标文件。"},
	}

	paras := Segment(pages, DefaultShortLine)
	if len(paras) != 1 {
		t.Fatalf("expected the page break to be merged, got %+v", paras)
	}
	if paras[0].Page != 3 {
		t.Fatalf("paragraph page should be the first line's page, got %d", paras[0].Page)
	}
}

func TestSegmentCommitsOnPunctuationAndListStart(t *testing.T) {
	long := strings.Repeat("服务", 25)
	pages := []ingest.Page{{Number: 1, Text: strings.Join([]string{
		long + "。",
		long,
		"2. 第二项内容",
		long,
		"（3）第三项内容",
	}, "\n")}}

	paras := Segment(pages, DefaultShortLine)
	if len(paras) != 5 {
		t.Fatalf("expected 5 paragraphs, got %d: %+v", len(paras), paras)
	}
	for i, p := range paras {
		if p.Index != i {
			t.Fatalf("paragraph %d has index %d", i, p.Index)
		}
	}
}

func TestSegmentSpacesWrappedLatinWords(t *testing.T) {
	long := strings.Repeat("部署", 20) + "Kubernetes"
	paras := Segment([]ingest.Page{{Number: 1, Text: long + "\ncluster 节点。"}}, DefaultShortLine)
	if len(paras) != 1 {
		t.Fatalf("expected one paragraph, got %+v", paras)
	}
	if !strings.Contains(paras[0].Text, "Kubernetes cluster") {
		t.Fatalf("latin words fused: %q", paras[0].Text)
	}
}

func TestSegmentIsDeterministic(t *testing.T) {
	pages := []ingest.Page{
		{Number: 1, Text: "标题\n" + strings.Repeat("内容", 30) + "\n续行。\n1. 列表"},
		{Number: 2, Text: "尾部段落没有标点"},
	}
	first := Segment(pages, DefaultShortLine)
	for i := 0; i < 5; i++ {
		again := Segment(pages, DefaultShortLine)
		if len(again) != len(first) {
			t.Fatalf("run %d produced %d paragraphs, want %d", i, len(again), len(first))
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d paragraph %d differs: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
	prev := 0
	for _, p := range first {
		if p.Page < 1 || p.Page < prev {
			t.Fatalf("pages must be 1-based and non-decreasing: %+v", first)
		}
		prev = p.Page
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	if got := Segment(nil, DefaultShortLine); len(got) != 0 {
		t.Fatalf("expected no paragraphs, got %+v", got)
	}
	if got := Segment([]ingest.Page{{Number: 1, Text: "\n \n\t\n"}}, DefaultShortLine); len(got) != 0 {
		t.Fatalf("blank lines must be dropped, got %+v", got)
	}
}

func TestBrokenTail(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"这是一段正常的句子。", false},
		{"这是一个非常长的句子但是没有标点符号结尾", true},
		{"段落的内容很长很长，但是最后竟然忘了加句号", true},
		{"This is a long sentence without punctuation", true},
		{`He said: "Quote."`, false},
		{"本条款的解释权归招标人所有（详见附件）", true},
		{"本条款的解释权归招标人所有（详见附件。）", false},
		{"短句", false},
	}
	for _, tc := range cases {
		if got := BrokenTail(tc.text, DefaultBrokenTailLength); got != tc.want {
			t.Fatalf("BrokenTail(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
