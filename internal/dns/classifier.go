package dns

import (
	"strings"

	mdns "github.com/miekg/dns"
)

// Classify 找出主机名的可注册域名（公共后缀之下的第一级）。
// 返回 labels[k-1:]，其中 k 是使 labels[k:] 属于后缀表的最小下标。
func Classify(host string, table SuffixTable) (string, bool) {
	if table == nil {
		return "", false
	}
	host, err := toASCII(host)
	if err != nil {
		return "", false
	}

	labels := mdns.SplitDomainName(host)
	for k := 1; k < len(labels); k++ {
		if labels[k] == "" {
			return "", false
		}
		if table.IsSuffix(strings.Join(labels[k:], ".")) {
			if labels[k-1] == "" {
				return "", false
			}
			return strings.Join(labels[k-1:], "."), true
		}
	}
	return "", false
}
