package nntptest

import (
	"fmt"
	"hash/crc32"

	"github.com/t2bot/nzbkit/decoding"
)

// YencBody builds a single-part yEnc article body for data.
func YencBody(name string, data []byte) []byte {
	crc := crc32.ChecksumIEEE(data)
	body := fmt.Sprintf("=ybegin part=1 line=128 size=%d name=%s\r\n=ypart begin=1 end=%d\r\n", len(data), name, len(data))
	body += string(decoding.Encode(data, 128))
	body += fmt.Sprintf("=yend size=%d part=1 pcrc32=%08x crc32=%08x\r\n", len(data), crc, crc)
	return []byte(body)
}
