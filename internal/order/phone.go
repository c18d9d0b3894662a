package order

import (
	"strings"
	"unicode"
)

// DigitsOnly 去掉所有非数字字符。
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NationalNumber 下单时的宽松校验：接受带 91 / 0 前缀的写法，返回 10 位本地号码。
func NationalNumber(raw string) (string, bool) {
	d := DigitsOnly(raw)
	switch {
	case len(d) == 10:
		return d, true
	case len(d) == 12 && strings.HasPrefix(d, "91"):
		return d[2:], true
	case len(d) == 11 && strings.HasPrefix(d, "0"):
		return d[1:], true
	}
	return "", false
}

// PhoneVariants 查单用：输入规范化后必须恰好 10 位，返回数据库里可能出现的各种写法。
// 只做精确匹配，不做模糊/子串匹配，避免查到别人的订单。
func PhoneVariants(raw string) ([]string, error) {
	n := DigitsOnly(raw)
	if len(n) != 10 {
		return nil, ErrInvalidPhoneFormat
	}
	spaced := n[:5] + " " + n[5:]
	return []string{
		n,
		"+91" + n,
		"91" + n,
		"91 " + n,
		"+91 " + n,
		"+91-" + n,
		"91-" + n,
		"0" + n,
		spaced,
		"+91 " + spaced,
	}, nil
}
