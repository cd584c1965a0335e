package format

import (
	"github.com/webmdk/webmdk/av/avutil"
	"github.com/webmdk/webmdk/format/webm"
)

func RegisterAll() {
	avutil.DefaultHandlers.Add(webm.Handler)
}
