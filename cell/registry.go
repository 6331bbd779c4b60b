package cell

import (
	"fmt"
	"reflect"
	"slices"

	"golang.org/x/crypto/cryptobyte"
)

// Type describes one registered cell command. FixedSize is derived from
// Value with IsVariableLength. Lookups return copies, so the registry itself
// cannot be changed through them.
type Type struct {
	Name      string
	Value     Command
	FixedSize bool

	// decode is nil for commands that are known but not yet implemented.
	decode func(s cryptobyte.String) (Cell, error)
}

// Implemented reports whether payloads of this type can be decoded.
func (t Type) Implemented() bool {
	return t.decode != nil
}

func (t Type) String() string {
	return t.Name
}

var registry = []Type{
	{Name: "PADDING", Value: CmdPadding, decode: decodePadding},
	{Name: "CREATE", Value: CmdCreate},
	{Name: "CREATED", Value: CmdCreated},
	{Name: "RELAY", Value: CmdRelay},
	{Name: "DESTROY", Value: CmdDestroy},
	{Name: "CREATE_FAST", Value: CmdCreateFast},
	{Name: "CREATED_FAST", Value: CmdCreatedFast},
	{Name: "VERSIONS", Value: CmdVersions, decode: decodeVersions},
	{Name: "NETINFO", Value: CmdNetInfo, decode: decodeNetinfo},
	{Name: "RELAY_EARLY", Value: CmdRelayEarly},
	{Name: "CREATE2", Value: CmdCreate2},
	{Name: "CREATED2", Value: CmdCreated2},
	{Name: "PADDING_NEGOTIATE", Value: CmdPaddingNegotiate},
	{Name: "VPADDING", Value: CmdVPadding, decode: decodeVPadding},
	{Name: "CERTS", Value: CmdCerts, decode: decodeCerts},
	{Name: "AUTH_CHALLENGE", Value: CmdAuthChallenge, decode: decodeAuthChallenge},
	{Name: "AUTHENTICATE", Value: CmdAuthenticate},
	{Name: "AUTHORIZE", Value: CmdAuthorize},
}

var (
	typesByName  map[string]*Type
	typesByValue [256]*Type
)

func init() {
	typesByName = make(map[string]*Type, len(registry))
	for i := range registry {
		t := &registry[i]
		t.FixedSize = !IsVariableLength(t.Value)
		if _, dup := typesByName[t.Name]; dup {
			panic("cell: duplicate registry name " + t.Name)
		}
		if typesByValue[t.Value] != nil {
			panic(fmt.Sprintf("cell: duplicate registry value %d", t.Value))
		}
		typesByName[t.Name] = t
		typesByValue[t.Value] = t
	}
}

// ByName returns the registered type with the given name, e.g. "NETINFO".
func ByName(name string) (Type, error) {
	if t, ok := typesByName[name]; ok {
		return *t, nil
	}
	return Type{}, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// ByValue returns the registered type for a command byte.
func ByValue(cmd Command) (Type, error) {
	if t := typesByValue[cmd]; t != nil {
		return *t, nil
	}
	return Type{}, fmt.Errorf("%w: command %d", ErrUnknownType, uint8(cmd))
}

// Lookup resolves a name (string) or command value (Command or any integer
// kind). Keys of any other kind fail with ErrUnknownType, the same as a miss.
func Lookup(key any) (Type, error) {
	switch k := key.(type) {
	case string:
		return ByName(k)
	case Command:
		return ByValue(k)
	case nil:
		return Type{}, fmt.Errorf("%w: nil key", ErrUnknownType)
	}
	v := reflect.ValueOf(key)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n := v.Int(); n >= 0 && n <= 0xFF {
			return ByValue(Command(n))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if n := v.Uint(); n <= 0xFF {
			return ByValue(Command(n))
		}
	}
	return Type{}, fmt.Errorf("%w: %v (%T)", ErrUnknownType, key, key)
}

// Types returns every registered type ordered by command value.
func Types() []Type {
	out := slices.Clone(registry)
	slices.SortFunc(out, func(a, b Type) int { return int(a.Value) - int(b.Value) })
	return out
}
