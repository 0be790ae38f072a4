// Package line provides shell commands working on the serial line.
package line

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/serial.go/pkg/cli/sh"
)

// Unquote interprets Go escapes in the joined args, so `send Hi\n`
// sends a newline.
func Unquote(args []string) ([]byte, error) {
	text := strings.Join(args, " ")
	var quoted strings.Builder
	quoted.WriteByte('"')
	escaped := false
	for _, r := range text {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			// bare quote, an escaped one is kept as is.
			quoted.WriteByte('\\')
		}
		quoted.WriteRune(r)
	}
	quoted.WriteByte('"')
	s, err := strconv.Unquote(quoted.String())
	if err != nil {
		return nil, fmt.Errorf("invalid escapes in %q: %v", text, err)
	}
	return []byte(s), nil
}

var (
	// SendCmd transmits text.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "TEXT...",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("TEXT required"))
				return
			}
			data, err := Unquote(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if err := sh.ShellFrom(c).Send(data); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, map[string]int{"sent": len(data)}, fmt.Sprintf("sent %d bytes", len(data)))
		},
	}

	// RecvCmd receives bytes.
	RecvCmd = ishell.Cmd{
		Name:    "recv",
		Aliases: []string{"r"},
		Help:    "[COUNT]",
		Func: func(c *ishell.Context) {
			count := 1
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n <= 0 {
					c.Err(fmt.Errorf("invalid COUNT %q", c.Args[0]))
					return
				}
				count = n
			}
			s := sh.ShellFrom(c)
			var data []byte
			for i := 0; i < count; i++ {
				b, err := s.Receive()
				if err != nil {
					c.Err(err)
					break
				}
				data = append(data, b)
			}
			if len(data) > 0 {
				sh.Print(c, map[string][]byte{"received": data}, strconv.Quote(string(data)))
			}
		},
	}

	// InjectCmd places text on the simulated receive line.
	InjectCmd = ishell.Cmd{
		Name:    "inject",
		Aliases: []string{"i"},
		Help:    "TEXT...",
		Func: sh.MustBeSim(func(c *ishell.Context) {
			data, err := Unquote(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if err := sh.ShellFrom(c).Env.Inject(data); err != nil {
				c.Err(err)
			}
		}),
	}

	// LineCmd prints bytes captured on the simulated transmit line.
	LineCmd = ishell.Cmd{
		Name:    "line",
		Aliases: []string{"tx"},
		Help:    "",
		Func: sh.MustBeSim(func(c *ishell.Context) {
			data := sh.ShellFrom(c).Env.Sim.Transmitted()
			sh.Print(c, map[string][]byte{"transmitted": data}, strconv.Quote(string(data)))
		}),
	}

	// RegsCmd prints the simulated serial and LED registers.
	RegsCmd = ishell.Cmd{
		Name:    "regs",
		Help:    "",
		Func: sh.MustBeSim(func(c *ishell.Context) {
			r := sh.ShellFrom(c).Env.Sim.Registers()
			sh.Print(c, r, fmt.Sprintf("SPBRG=%d %s SPEN=%t TXEN=%t CREN=%t LED=%t TMR0=0x%04X overrun=%d",
				r.SPBRG, r.Format, r.SPEN, r.TXEN, r.CREN, r.LED, r.Timer0, r.Overrun))
		}),
	}
)

func init() {
	sh.AddCmds(&SendCmd, &RecvCmd, &InjectCmd, &LineCmd, &RegsCmd)
}
