package backend

// Builtin command tables for the supported package managers. These are
// pure data: the CLI adapter in cli.go does all the work. Verbs a tool
// does not have are left nil (purge falls back to remove).
var builtins = []Definition{
	{
		Name:         "apt",
		Bin:          "apt-get",
		SearchBin:    "apt-cache",
		ListBin:      "dpkg-query",
		SearchArgs:   []string{"search"},
		InstallArgs:  []string{"install", "-y"},
		RemoveArgs:   []string{"remove", "-y"},
		PurgeArgs:    []string{"purge", "-y"},
		UpdateArgs:   []string{"update"},
		UpgradeArgs:  []string{"upgrade", "-y"},
		ListArgs:     []string{"-W", "-f=${Package} ${Version}\n"},
		SearchFormat: formatColumns,
		ListFormat:   formatColumns,
	},
	{
		Name:         "dnf",
		Bin:          "dnf",
		SearchArgs:   []string{"search", "-q"},
		InstallArgs:  []string{"install", "-y"},
		RemoveArgs:   []string{"remove", "-y"},
		UpdateArgs:   []string{"check-update", "-q"},
		UpgradeArgs:  []string{"upgrade", "-y"},
		ListArgs:     []string{"list", "--installed", "-q"},
		SearchFormat: formatColumns,
		ListFormat:   formatColumns,
	},
	{
		Name:         "pacman",
		Bin:          "pacman",
		SearchArgs:   []string{"-Ss"},
		InstallArgs:  []string{"-S", "--noconfirm"},
		RemoveArgs:   []string{"-R", "--noconfirm"},
		PurgeArgs:    []string{"-Rns", "--noconfirm"},
		UpdateArgs:   []string{"-Sy"},
		UpgradeArgs:  []string{"-Su", "--noconfirm"},
		ListArgs:     []string{"-Q"},
		SearchFormat: formatRepoSlash,
		ListFormat:   formatColumns,
	},
	{
		Name:         "zypper",
		Bin:          "zypper",
		SearchArgs:   []string{"--non-interactive", "search"},
		InstallArgs:  []string{"--non-interactive", "install"},
		RemoveArgs:   []string{"--non-interactive", "remove"},
		UpdateArgs:   []string{"--non-interactive", "refresh"},
		UpgradeArgs:  []string{"--non-interactive", "update"},
		ListArgs:     []string{"--non-interactive", "search", "--installed-only"},
		SearchFormat: formatColumns,
		ListFormat:   formatColumns,
	},
	{
		Name:         "apk",
		Bin:          "apk",
		SearchArgs:   []string{"search"},
		InstallArgs:  []string{"add"},
		RemoveArgs:   []string{"del"},
		UpdateArgs:   []string{"update"},
		UpgradeArgs:  []string{"upgrade"},
		ListArgs:     []string{"info"},
		SearchFormat: formatNamesOnly,
		ListFormat:   formatNamesOnly,
	},
	{
		Name:         "emerge",
		Bin:          "emerge",
		SearchArgs:   []string{"--search"},
		InstallArgs:  []string{"--quiet"},
		RemoveArgs:   []string{"--unmerge", "--quiet"},
		UpdateArgs:   []string{"--sync"},
		UpgradeArgs:  []string{"--update", "--deep", "--quiet"},
		SearchFormat: formatColumns,
	},
	{
		Name:         "xbps",
		Bin:          "xbps-install",
		SearchBin:    "xbps-query",
		RemoveBin:    "xbps-remove",
		ListBin:      "xbps-query",
		SearchArgs:   []string{"-Rs"},
		InstallArgs:  []string{"-y"},
		RemoveArgs:   []string{"-y"},
		PurgeArgs:    []string{"-Ry"},
		UpdateArgs:   []string{"-S"},
		UpgradeArgs:  []string{"-Su", "-y"},
		ListArgs:     []string{"-l"},
		SearchFormat: formatColumns,
		ListFormat:   formatColumns,
	},
	{
		Name:         "brew",
		Bin:          "brew",
		SearchArgs:   []string{"search"},
		InstallArgs:  []string{"install"},
		RemoveArgs:   []string{"uninstall"},
		PurgeArgs:    []string{"uninstall", "--zap"},
		UpdateArgs:   []string{"update"},
		UpgradeArgs:  []string{"upgrade"},
		ListArgs:     []string{"list", "--versions"},
		SearchFormat: formatNamesOnly,
		ListFormat:   formatColumns,
	},
	{
		Name:         "port",
		Bin:          "port",
		SearchArgs:   []string{"search", "--name"},
		InstallArgs:  []string{"install"},
		RemoveArgs:   []string{"uninstall"},
		UpdateArgs:   []string{"sync"},
		UpgradeArgs:  []string{"upgrade"},
		ListArgs:     []string{"installed"},
		SearchFormat: formatColumns,
		ListFormat:   formatColumns,
	},
	{
		Name:         "flatpak",
		Bin:          "flatpak",
		SearchArgs:   []string{"search"},
		InstallArgs:  []string{"install", "-y"},
		RemoveArgs:   []string{"uninstall", "-y"},
		PurgeArgs:    []string{"uninstall", "--delete-data", "-y"},
		UpdateArgs:   []string{"update", "--appstream"},
		UpgradeArgs:  []string{"update", "-y"},
		ListArgs:     []string{"list", "--columns=application,version"},
		SearchFormat: formatColumns,
		ListFormat:   formatColumns,
	},
	{
		Name:         "snap",
		Bin:          "snap",
		SearchArgs:   []string{"find"},
		InstallArgs:  []string{"install"},
		RemoveArgs:   []string{"remove"},
		PurgeArgs:    []string{"remove", "--purge"},
		UpgradeArgs:  []string{"refresh"},
		ListArgs:     []string{"list"},
		SearchFormat: formatColumns,
		ListFormat:   formatColumns,
	},
	{
		Name:         "nix",
		Bin:          "nix-env",
		SearchArgs:   []string{"-qaP"},
		InstallArgs:  []string{"-i"},
		RemoveArgs:   []string{"-e"},
		UpgradeArgs:  []string{"-u"},
		ListArgs:     []string{"-q"},
		SearchFormat: formatColumns,
		ListFormat:   formatColumns,
	},
	{
		Name:         "winget",
		Bin:          "winget",
		SearchArgs:   []string{"search"},
		InstallArgs:  []string{"install", "--silent"},
		RemoveArgs:   []string{"uninstall", "--silent"},
		UpgradeArgs:  []string{"upgrade", "--silent"},
		ListArgs:     []string{"list"},
		SearchFormat: formatColumns,
		ListFormat:   formatColumns,
	},
	{
		Name:         "choco",
		Bin:          "choco",
		SearchArgs:   []string{"search", "--limit-output"},
		InstallArgs:  []string{"install", "-y"},
		RemoveArgs:   []string{"uninstall", "-y"},
		UpgradeArgs:  []string{"upgrade", "-y"},
		ListArgs:     []string{"list", "--limit-output"},
		SearchFormat: formatColumns,
		ListFormat:   formatColumns,
	},
}

// Builtins returns the builtin definitions. Callers receive copies so a
// config override cannot mutate the shared tables.
func Builtins() []Definition {
	out := make([]Definition, len(builtins))
	copy(out, builtins)
	return out
}
