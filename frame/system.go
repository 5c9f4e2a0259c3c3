package frame

// System module
var System = &Module{
	Name: "System",
	Events: []Event{
		{Name: "ExtrinsicSuccess", Args: []string{"DispatchInfo"}},
		{Name: "ExtrinsicFailed", Args: []string{"DispatchError", "DispatchInfo"}},
	},
	TypeSizes: map[string]int{
		// weight u32, class u8, pays fee bool
		"DispatchInfo": 6,
	},
}
