package detect

// DefaultRuleSet is the built-in detection table covering the vendor stack
// most commonly documented for managed clients. Operators override it with
// a YAML file (see configs/rules.example.yaml); the shape is identical.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Fields: []FieldRules{
			{
				Field: "platform_choice",
				Rules: []ValueRule{
					{Value: "Microsoft 365 / Azure", Any: []string{"microsoft 365", "office 365", "o365", "azure"}},
					{Value: "Google Workspace", Any: []string{"google workspace", "gsuite", "gmail"}},
				},
			},
			{
				Field: "mdr_solution",
				Rules: []ValueRule{
					{Value: "Sophos MDR", Any: []string{"sophos"}},
					{Value: "Other MDR", Any: []string{"crowdstrike", "sentinelone"}},
					{Value: "Traditional Antivirus Only", Any: []string{"antivirus", "defender"}},
				},
			},
			{
				Field: "email_security",
				Rules: []ValueRule{
					{Value: "Avanan Email Security", Any: []string{"avanan"}},
					{Value: "Microsoft Defender", Any: []string{"defender", "atp"}},
					{Value: "Other Email Security", Any: []string{"proofpoint", "mimecast"}},
				},
			},
			{
				Field: "siem_solution",
				Rules: []ValueRule{
					{Value: "SIEM with SOC monitoring", Any: []string{"siem", "splunk", "sentinel"}},
					{Value: "Basic log collection", Any: []string{"log"}, All: []string{"monitor"}},
				},
			},
			{
				Field: "pam_solution",
				Rules: []ValueRule{
					{Value: "Senhasegura PAM", Any: []string{"senhasegura"}},
					{Value: "Other PAM", Any: []string{"cyberark", "thycotic", "beyondtrust"}},
				},
			},
			{
				Field: "disk_encryption",
				Rules: []ValueRule{
					{Value: "Both BitLocker and FileVault", Any: []string{"bitlocker"}, All: []string{"filevault"}},
					{Value: "BitLocker (Windows)", Any: []string{"bitlocker"}},
					{Value: "FileVault (macOS)", Any: []string{"filevault"}},
				},
			},
			{
				Field: "mdm_computers",
				Rules: []ValueRule{
					{Value: "Microsoft Intune", Any: []string{"intune"}},
					{Value: "Other MDM", Any: []string{"jamf", "airwatch"}},
				},
			},
			{
				Field: "mdm_mobile",
				Rules: []ValueRule{
					{Value: "Microsoft Intune", Any: []string{"intune"}},
					{Value: "Other MDM", Any: []string{"jamf", "airwatch"}},
				},
			},
			{
				Field: "security_training",
				Rules: []ValueRule{
					{Value: "KnowBe4 Monthly Training", Any: []string{"knowbe4"}, All: []string{"monthly"}},
					{Value: "KnowBe4 Quarterly Training", Any: []string{"knowbe4"}},
				},
			},
			{
				Field: "phishing_tests",
				Rules: []ValueRule{
					{Value: "Monthly Phishing Tests", Any: []string{"knowbe4", "phishing"}},
				},
			},
			{
				Field: "vulnerability_scans",
				Rules: []ValueRule{
					{Value: "Monthly Vulnerability Scans", Any: []string{"vulnerability", "nessus", "qualys"}, All: []string{"monthly"}},
					{Value: "Quarterly Vulnerability Scans", Any: []string{"vulnerability", "nessus", "qualys"}},
				},
			},
			{
				Field: "dark_web_monitoring",
				Rules: []ValueRule{
					{Value: "DarkWebID Monitoring", Any: []string{"darkwebid", "dark web"}},
					{Value: "Other Dark Web Monitoring", Any: []string{"breach"}, All: []string{"monitor"}},
				},
			},
			{
				Field: "mfa_solution",
				Rules: []ValueRule{
					{Value: "Microsoft MFA", Any: []string{"mfa", "authenticator"}, All: []string{"microsoft"}},
					{Value: "Duo Security", Any: []string{"duo"}},
					{Value: "Other MFA", Any: []string{"mfa", "two-factor", "2fa"}},
				},
			},
			{
				Field: "password_manager",
				Rules: []ValueRule{
					{Value: "LastPass Business", Any: []string{"lastpass"}},
					{Value: "Other Password Manager", Any: []string{"1password", "dashlane", "keeper"}},
				},
			},
			{
				Field: "intrusion_detection",
				Rules: []ValueRule{
					{Value: "Network Intrusion Detection System", Any: []string{"ids", "ips", "intrusion"}},
					{Value: "Firewall with IDS/IPS", Any: []string{"sonicwall", "fortinet", "palo alto"}, All: []string{"firewall"}},
					{Value: "Basic Firewall", Any: []string{"firewall", "meraki"}},
				},
			},
		},
		Tags: []TagRule{
			{Tag: "NIST", Any: []string{"nist"}},
			{Tag: "SOC 2", Any: []string{"soc 2", "soc2"}},
			{Tag: "ISO 27001", Any: []string{"iso 27001", "iso27001"}},
			{Tag: "HIPAA", Any: []string{"hipaa"}},
			{Tag: "PCI-DSS", Any: []string{"pci"}},
			{Tag: "GDPR", Any: []string{"gdpr"}},
			{Tag: "CMMC", Any: []string{"cmmc"}},
		},
	}
}
