package rate

import "strings"

func loginEmailKey(email string) string {
	return "ral:" + strings.ToLower(strings.TrimSpace(email))
}

func loginIPKey(ip string) string {
	return "rali:" + ip
}
