package fingerprint

// Rules gates which paragraphs may take part in matching.
type Rules struct {
	// MinLength rejects fingerprints with this many runes or fewer.
	MinLength int
	// NumericMinLength rejects digit-only fingerprints with this many runes or fewer.
	NumericMinLength int
}

func DefaultRules() Rules {
	return Rules{MinLength: 10, NumericMinLength: 15}
}

// Section headers that every bid carries. Keys are fingerprints.
var boilerplateHeaders = map[string]struct{}{}

func init() {
	for _, h := range []string{
		"招标文件",
		"投标文件",
		"投标须知",
		"投标人须知",
		"投标人须知前附表",
		"法定代表人",
		"法定代表人身份证明",
		"法定代表人身份证明书",
		"法定代表人授权委托书",
		"授权委托书",
		"投标函",
		"投标函附录",
		"开标一览表",
		"报价一览表",
		"分项报价表",
		"商务部分",
		"技术部分",
		"资格审查资料",
		"资格证明文件",
		"评标办法",
		"合同条款",
		"合同主要条款",
		"技术规格偏离表",
		"商务条款偏离表",
		"目录",
		"附件",
	} {
		boilerplateHeaders[Fingerprint(h)] = struct{}{}
	}
}

// Significant reports whether a paragraph carries enough content to count
// as evidence. fp is the paragraph's Fingerprint.
func Significant(fp string, rules Rules) bool {
	if _, ok := boilerplateHeaders[fp]; ok {
		return false
	}
	n := Length(fp)
	if n <= rules.MinLength {
		return false
	}
	if numericOnly(fp) && n <= rules.NumericMinLength {
		return false
	}
	return true
}
