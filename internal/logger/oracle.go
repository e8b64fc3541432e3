package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// 中文说明：
// 独立的 Oracle 请求/响应日志（全文、不截断），用于事后复盘模型输出。
// 与主日志分开写，避免淹没交易日志。

var (
	oracleMu  sync.Mutex
	oracleLog *log.Logger
)

func SetOracleWriter(w io.Writer) {
	oracleMu.Lock()
	defer oracleMu.Unlock()
	if w == nil {
		oracleLog = nil
		return
	}
	oracleLog = log.New(w, "", log.LstdFlags)
}

func LogOracleExchange(symbol, credential, prompt, raw string) {
	oracleMu.Lock()
	l := oracleLog
	oracleMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[ORACLE][")
	b.WriteString(symbol)
	b.WriteString("][")
	b.WriteString(credential)
	b.WriteString("]\n--- PROMPT ---\n")
	b.WriteString(prompt)
	if !strings.HasSuffix(prompt, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("--- RAW ---\n")
	b.WriteString(raw)
	if !strings.HasSuffix(raw, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}
