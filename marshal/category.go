package marshal

// Category is a marshaling class. Every value that crosses the bridge falls
// into exactly one category, and the category alone decides how it is passed.
type Category uint8

const (
	// CategoryScalar is an integer or bool atom, copied both ways.
	CategoryScalar Category = iota
	// CategoryStruct is a plain aggregate of atoms and strings, copied both ways.
	CategoryStruct
	// CategoryStr is a read-only (ptr, len) view of native UTF-8.
	CategoryStr
	// CategoryNativeString is an xb_string owned by whoever holds it.
	CategoryNativeString
	// CategoryManagedString is a Go string native code sees only as a handle.
	CategoryManagedString
	// CategoryBox is an opaque Go value behind a transferable handle.
	CategoryBox
	// CategoryUnique is a native value with a destructor and a single owner.
	CategoryUnique
	// CategorySequence is an owned array of scalars or structs.
	CategorySequence

	categoryCount
)

var categoryNames = [categoryCount]string{
	CategoryScalar:        "scalar",
	CategoryStruct:        "struct",
	CategoryStr:           "str",
	CategoryNativeString:  "native_string",
	CategoryManagedString: "managed_string",
	CategoryBox:           "box",
	CategoryUnique:        "unique",
	CategorySequence:      "sequence",
}

func (c Category) String() string {
	if c < categoryCount {
		return categoryNames[c]
	}
	return "unknown"
}

// ArgRule says how a category is passed as an argument.
type ArgRule uint8

const (
	// ByValue copies the value; the caller keeps its own.
	ByValue ArgRule = iota
	// Borrowed lends a view for the duration of the call.
	Borrowed
	// Consumed transfers custody to the callee.
	Consumed
	// BorrowedOrConsumed lets the call site choose.
	BorrowedOrConsumed
)

func (r ArgRule) String() string {
	switch r {
	case ByValue:
		return "by_value"
	case Borrowed:
		return "borrowed"
	case Consumed:
		return "consumed"
	case BorrowedOrConsumed:
		return "borrowed_or_consumed"
	}
	return "unknown"
}

// ReturnRule says how a category comes back from a call.
type ReturnRule uint8

const (
	// ReturnByValue copies the value out.
	ReturnByValue ReturnRule = iota
	// NewlyOwned hands a fresh instance to the caller, who must release it.
	NewlyOwned
	// NotReturnable marks categories that cannot outlive the call.
	NotReturnable
)

func (r ReturnRule) String() string {
	switch r {
	case ReturnByValue:
		return "by_value"
	case NewlyOwned:
		return "newly_owned"
	case NotReturnable:
		return "not_returnable"
	}
	return "unknown"
}

// Contract is the marshaling rule set of one category.
type Contract struct {
	Arg    ArgRule
	Return ReturnRule
	// Element reports whether the category may be a sequence element.
	Element bool
	// WrapUnique reports whether returned values arrive wrapped in a unique
	// handle so the receiver's normal destruction path frees them.
	WrapUnique bool
}

var contracts = [categoryCount]Contract{
	CategoryScalar:        {Arg: ByValue, Return: ReturnByValue, Element: true},
	CategoryStruct:        {Arg: ByValue, Return: ReturnByValue, Element: true},
	CategoryStr:           {Arg: Borrowed, Return: NotReturnable},
	CategoryNativeString:  {Arg: Consumed, Return: NewlyOwned},
	CategoryManagedString: {Arg: BorrowedOrConsumed, Return: NewlyOwned},
	CategoryBox:           {Arg: Consumed, Return: NewlyOwned},
	CategoryUnique:        {Arg: BorrowedOrConsumed, Return: NewlyOwned},
	CategorySequence:      {Arg: BorrowedOrConsumed, Return: NewlyOwned, WrapUnique: true},
}

// ContractOf returns the rules for c. An unknown category is a contract
// violation.
func ContractOf(c Category) Contract {
	if c >= categoryCount {
		violation("unknown category %d", uint8(c))
	}
	return contracts[c]
}

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, categoryCount)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// Mode is the passing mode chosen at a call site.
type Mode uint8

const (
	// ModeDefault uses the category's own rule; for BorrowedOrConsumed
	// categories it means borrow.
	ModeDefault Mode = iota
	ModeBorrow
	ModeConsume
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeBorrow:
		return "borrow"
	case ModeConsume:
		return "consume"
	}
	return "unknown"
}

// Resolve returns the effective argument rule for mode, or false if the
// category does not allow it.
func (c Contract) Resolve(mode Mode) (ArgRule, bool) {
	switch mode {
	case ModeDefault:
		if c.Arg == BorrowedOrConsumed {
			return Borrowed, true
		}
		return c.Arg, true
	case ModeBorrow:
		if c.Arg == Borrowed || c.Arg == BorrowedOrConsumed {
			return Borrowed, true
		}
	case ModeConsume:
		if c.Arg == Consumed || c.Arg == BorrowedOrConsumed {
			return Consumed, true
		}
	}
	return 0, false
}
