package config

// BuiltinExcludeClasses returns WM_CLASS values that are never treated as
// presentation targets: panels, docks and desktop widgets that some window
// managers still list as normal clients.
//
// These apply unless the user sets exclude_classes in their config file.
func BuiltinExcludeClasses() ClassList {
	return ClassList{
		"Polybar",
		"tint2",
		"lemonbar",
		"Conky",
		"xfce4-panel",
		"Plank",
		"trayer",
		"stalonetray",
	}
}

// BuiltinNavigationClasses returns container classes that embed other clients
// and show one of them at a time.
func BuiltinNavigationClasses() ClassList {
	return ClassList{
		"tabbed",
	}
}
