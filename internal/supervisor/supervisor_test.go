package supervisor

import "testing"

func TestParseArgs_HappyPath(t *testing.T) {
	args, err := ParseArgs([]string{"34567", "/var/log/woxhost", "4242"})
	if err != nil {
		t.Fatalf("ParseArgs returned error: %v", err)
	}
	if args.Port != 34567 || args.LogDirectory != "/var/log/woxhost" || args.WoxPid != 4242 {
		t.Errorf("ParseArgs = %+v, want Port=34567 LogDirectory=/var/log/woxhost WoxPid=4242", args)
	}
}

func TestParseArgs_WrongArgCount(t *testing.T) {
	for _, argv := range [][]string{
		{},
		{"34567"},
		{"34567", "/var/log/woxhost"},
		{"34567", "/var/log/woxhost", "4242", "extra"},
	} {
		if _, err := ParseArgs(argv); err == nil {
			t.Errorf("ParseArgs(%v) should fail on wrong argument count", argv)
		}
	}
}

func TestParseArgs_NonNumericPort(t *testing.T) {
	if _, err := ParseArgs([]string{"not-a-port", "/tmp", "4242"}); err == nil {
		t.Error("ParseArgs should reject a non-numeric port")
	}
}

func TestParseArgs_PortOutOfRange(t *testing.T) {
	for _, port := range []string{"0", "-1", "70000"} {
		if _, err := ParseArgs([]string{port, "/tmp", "4242"}); err == nil {
			t.Errorf("ParseArgs should reject out-of-range port %q", port)
		}
	}
}

func TestParseArgs_EmptyLogDirectory(t *testing.T) {
	if _, err := ParseArgs([]string{"34567", "", "4242"}); err == nil {
		t.Error("ParseArgs should reject an empty logDirectory")
	}
}

func TestParseArgs_NonNumericWoxPid(t *testing.T) {
	if _, err := ParseArgs([]string{"34567", "/tmp", "not-a-pid"}); err == nil {
		t.Error("ParseArgs should reject a non-numeric woxPid")
	}
}

func TestParseArgs_NonPositiveWoxPid(t *testing.T) {
	for _, pid := range []string{"0", "-5"} {
		if _, err := ParseArgs([]string{"34567", "/tmp", pid}); err == nil {
			t.Errorf("ParseArgs should reject non-positive woxPid %q", pid)
		}
	}
}
