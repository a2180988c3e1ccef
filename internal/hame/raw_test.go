package hame

import (
	"errors"
	"testing"
)

// deviceInfoPayload is a real status message, obtained by sending cd=1.
const deviceInfoPayload = "p1=1,p2=1,w1=23,w2=23,pe=99,vv=220,sv=12,cs=0,cd=0,am=0,o1=1,o2=1,do=80,lv=200,cj=2,kn=2217,g1=1,g2=0,b1=0,b2=0,md=0,d1=1,e1=0:0,f1=23:59,h1=200,d2=0,e2=0:0,f2=0:0,h2=600,d3=0,e3=0:0,f3=0:0,h3=0,sg=0,sp=80,st=0,tl=27,th=27,tc=0,tf=0,fc=202310231502,id=5,a0=99,a1=0,a2=0,l0=1,l1=0,c0=255,c1=0,bc=2025,bs=329,pt=3332,it=1518,m0=0,m1=0,m2=0,m3=1,d4=0,e4=0:0,f4=24:0,h4=80,d5=0,e5=0:0,f5=24:0,h5=80,lmo=1830,lmi=272,lmf=1"

// batteryDataPayload is a real status message, obtained by sending cd=16.
const batteryDataPayload = "p1=0,p2=0,m1=36957,m2=37457,c1=1,c2=0,w1=0,w2=0,e1=1,e2=1,o1=2,o2=2,i1=39732,i2=39482,c3=3692,c4=3580,g1=116,g2=112,sg=0,sp=80,st=0,ps=3,bb=56,bv=46463,bc=1521,sb=0,sv=0,sc=0,lb=0,lv=0,lc=0"

func TestDecodeDeviceInfo(t *testing.T) {
	msg, err := ParseMessage([]byte(deviceInfoPayload))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	raw, err := DecodeDeviceInfo(msg)
	if err != nil {
		t.Fatalf("DecodeDeviceInfo() error = %v", err)
	}

	want := RawDeviceInfo{
		P1: 1, P2: 1,
		W1: 23, W2: 23,
		Pe: 99,
		O1: 1, O2: 1,
		Do: 80,
		Lv: 200,
		Cj: SceneDusk,
		Kn: 2217,
		G1: 1, G2: 0,
		Tl: 27, Th: 27,
		L0: 1,
	}
	if raw != want {
		t.Errorf("DecodeDeviceInfo() = %+v, want %+v", raw, want)
	}
}

func TestDecodeDeviceInfoMissingField(t *testing.T) {
	// Drop "pe" from an otherwise complete record; the error must cite
	// exactly that field.
	msg, err := ParseMessage([]byte("p1=1,p2=1,w1=23,w2=23,o1=1,o2=1,do=80,lv=200,cj=2,kn=2217,g1=1,g2=0,tl=27,th=27,l0=1"))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	_, err = DecodeDeviceInfo(msg)

	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("DecodeDeviceInfo() error = %v, want *MissingFieldError", err)
	}
	if missing.Field != "pe" {
		t.Errorf("MissingFieldError.Field = %q, want %q", missing.Field, "pe")
	}
}

func TestDecodeDeviceInfoFirstMissingFieldWins(t *testing.T) {
	// Both w2 and th are absent; table order makes w2 the reported one.
	msg, err := ParseMessage([]byte("p1=1,p2=1,w1=23,pe=99,o1=1,o2=1,do=80,lv=200,cj=2,kn=2217,g1=1,g2=0,tl=27,l0=1"))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	_, err = DecodeDeviceInfo(msg)

	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("DecodeDeviceInfo() error = %v, want *MissingFieldError", err)
	}
	if missing.Field != "w2" {
		t.Errorf("MissingFieldError.Field = %q, want %q", missing.Field, "w2")
	}
}

func TestDecodeDeviceInfoInvalidField(t *testing.T) {
	msg, err := ParseMessage([]byte("p1=1,p2=1,w1=abc,w2=23,pe=99,o1=1,o2=1,do=80,lv=200,cj=2,kn=2217,g1=1,g2=0,tl=27,th=27,l0=1"))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	_, err = DecodeDeviceInfo(msg)

	var invalid *InvalidFieldError
	if !errors.As(err, &invalid) {
		t.Fatalf("DecodeDeviceInfo() error = %v, want *InvalidFieldError", err)
	}
	if invalid.Field != "w1" {
		t.Errorf("InvalidFieldError.Field = %q, want %q", invalid.Field, "w1")
	}
	if invalid.Err == nil {
		t.Error("InvalidFieldError.Err = nil, want underlying parse error")
	}
}

func TestDecodeDeviceInfoInvalidScene(t *testing.T) {
	msg, err := ParseMessage([]byte("p1=1,p2=1,w1=23,w2=23,pe=99,o1=1,o2=1,do=80,lv=200,cj=3,kn=2217,g1=1,g2=0,tl=27,th=27,l0=1"))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	_, err = DecodeDeviceInfo(msg)
	if !errors.Is(err, ErrInvalidScene) {
		t.Errorf("DecodeDeviceInfo() error = %v, want wrapped ErrInvalidScene", err)
	}

	var invalid *InvalidFieldError
	if !errors.As(err, &invalid) {
		t.Fatalf("DecodeDeviceInfo() error = %v, want *InvalidFieldError", err)
	}
	if invalid.Field != "cj" {
		t.Errorf("InvalidFieldError.Field = %q, want %q", invalid.Field, "cj")
	}
}

func TestDecodeBatteryData(t *testing.T) {
	msg, err := ParseMessage([]byte(batteryDataPayload))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	raw, err := DecodeBatteryData(msg)
	if err != nil {
		t.Fatalf("DecodeBatteryData() error = %v", err)
	}

	want := RawBatteryData{
		M1: 36957, M2: 37457,
		I1: 39732, I2: 39482,
		C3: 3692, C4: 3580,
		G1: 116, G2: 112,
		Ps: 3,
		Bb: 56,
		Bv: 46463,
		Bc: 1521,
	}
	if raw != want {
		t.Errorf("DecodeBatteryData() = %+v, want %+v", raw, want)
	}
}

func TestDecodeBatteryDataFromDeviceInfoPayload(t *testing.T) {
	// The two message kinds are distinguished only by their key sets:
	// a device-info payload is missing the battery-data keys.
	msg, err := ParseMessage([]byte(deviceInfoPayload))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	if _, err := DecodeBatteryData(msg); err == nil {
		t.Error("DecodeBatteryData() expected error for device-info payload")
	}
}
