package parse

import (
	"testing"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

const topSample = `Tasks: 612 total,   1 running, 611 sleeping,   0 stopped,   0 zombie
  Mem:   7812340K total,  7423104K used,   389236K free,    12288K buffers
  PID USER         PR  NI VIRT  RES  SHR S[%CPU] %MEM     TIME+ ARGS
27327 u0_a312      10 -10  18G 493.9M 140M S 12.0  6.4   3:12.04 com.zhiliaoapp.musically *
 1234 system       18  -2  14G  180M  90M S 61.5  2.3  40:01.22 system_server
  588 root         20   0  11G   4096  2048 S  0.0  0.0   0:00.31 logd
  abc root         20   0  11G   4096  2048 S  0.0  0.0   0:00.31 broken
 2352 u0_a99       20   0  13G  100M  40M S  1.0  1.2   0:10.00 com.example.app
 2352 u0_a99       20   0  13G  200M  40M S  2.0  2.5   0:10.02 com.example.app
 9999 u0_a1        20   0  13G  bogus 40M S  1.0  1.2   0:10.00 com.bad.ram
 7777 u0_a1        20   0  13G  80K  40M S  x.y  1.2   0:10.00 com.bad.cpu
`

func TestProcessTable(t *testing.T) {
	got, skips := ProcessTable(topSample)
	if skips != 3 {
		t.Fatalf("expected 3 skipped lines, got %d", skips)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 samples, got %d: %+v", len(got), got)
	}

	byPID := make(map[int]model.ProcessSample)
	for _, p := range got {
		byPID[p.PID] = p
	}

	tiktok := byPID[27327]
	if tiktok.Name != "com.zhiliaoapp.musically" {
		t.Fatalf("unexpected name %q", tiktok.Name)
	}
	if !tiktok.Marked {
		t.Fatal("trailing marker should be kept as metadata")
	}
	if mb := tiktok.RAMMB(); mb < 493.8 || mb > 494.0 {
		t.Fatalf("expected ~493.9 MB, got %.3f", mb)
	}

	if byPID[1234].CPUPercent != 61.5 {
		t.Fatalf("unexpected cpu %v", byPID[1234].CPUPercent)
	}
	if byPID[588].RAMBytes != 4096*1024 {
		t.Fatalf("bare RES should be read as KB, got %d", byPID[588].RAMBytes)
	}
	if byPID[588].Marked {
		t.Fatal("unmarked row reported as marked")
	}
}

func TestProcessTable_DuplicatePIDKeepsLater(t *testing.T) {
	got, _ := ProcessTable(topSample)
	count := 0
	for _, p := range got {
		if p.PID != 2352 {
			continue
		}
		count++
		if p.RAMBytes != 200*1024*1024 {
			t.Fatalf("expected the later 200M row, got %d bytes", p.RAMBytes)
		}
		if p.CPUPercent != 2.0 {
			t.Fatalf("expected the later cpu value, got %v", p.CPUPercent)
		}
	}
	if count != 1 {
		t.Fatalf("pid 2352 appears %d times", count)
	}
}

func TestProcessTable_NoHeader(t *testing.T) {
	raw := " 42 root 20 0 1G 12M 1M S 3.5 0.1 0:01.00 init\n"
	got, skips := ProcessTable(raw)
	if skips != 0 || len(got) != 1 || got[0].PID != 42 {
		t.Fatalf("unexpected result %+v skips=%d", got, skips)
	}
}

func TestProcessTable_TruncatedRow(t *testing.T) {
	raw := "  PID USER PR NI VIRT RES SHR S %CPU %MEM TIME+ ARGS\n" +
		" 42 root 20 0 1G\n" +
		" 43 root 20 0 1G 1e30G 1M S 1.0 0.1 0:01.00 huge\n" +
		" 44 root 20 0 1G 12M 1M S 3.5 0.1 0:01.00 init\n" +
		"\n" +
		"User 5%, System 3%\n"
	got, skips := ProcessTable(raw)
	if skips != 2 {
		t.Fatalf("expected the cut-off and oversized rows to be skipped, got %d", skips)
	}
	if len(got) != 1 || got[0].PID != 44 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestProcessTable_Empty(t *testing.T) {
	got, skips := ProcessTable("")
	if len(got) != 0 || skips != 0 {
		t.Fatalf("expected nothing, got %+v skips=%d", got, skips)
	}
}

func TestProcessTable_ANSI(t *testing.T) {
	raw := "\x1b[1m  PID USER PR NI VIRT RES SHR S %CPU %MEM TIME+ ARGS\x1b[0m\r\n" +
		"  10 root 20 0 1G 1M 1M S 5.0 0.1 0:01.00 kswapd0\r\n"
	got, _ := ProcessTable(raw)
	if len(got) != 1 || got[0].Name != "kswapd0" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestProcessTable_RoundTrip(t *testing.T) {
	in := []model.ProcessSample{
		{Name: "com.android.chrome", PID: 100, CPUPercent: 12.5, RAMBytes: 250 * 1024 * 1024},
		{Name: "surfaceflinger", PID: 200, CPUPercent: 0, RAMBytes: 64 * 1024},
		{Name: "com.whatsapp", PID: 300, CPUPercent: 7.25, RAMBytes: 310 * 1024 * 1024, Marked: true},
	}
	got, skips := ProcessTable(FormatProcessTable(in))
	if skips != 0 {
		t.Fatalf("round trip skipped %d lines", skips)
	}
	if len(got) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(got))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("sample %d: got %+v want %+v", i, got[i], in[i])
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"80K", 80 * 1024, true},
		{"252M", 252 * 1024 * 1024, true},
		{"1G", 1024 * 1024 * 1024, true},
		{"4096kB", 4096 * 1024, true},
		{"2048", 2048 * 1024, true},
		{"1.5M", 1536 * 1024, true},
		{"", 0, false},
		{"MB", 0, false},
		{"-3M", 0, false},
		{"abc", 0, false},
		{"1e30G", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParseSize(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseSize(%q) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
