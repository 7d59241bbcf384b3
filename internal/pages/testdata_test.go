package pages

const fullProfile = `{
	"About": {
		"Name": "Jane Doe",
		"Currently": "Software Engineer",
		"AboutText": "I build things.",
		"Thumbnail": "thumb.png",
		"Headshot": "headshot.jpg"
	},
	"Contact": {
		"EMail": "jane@example.com",
		"Phone": "555 0100",
		"LinkedIn": "https://linkedin.com/in/jane",
		"GitHub": "https://github.com/jane"
	},
	"Experience": {
		"ExperienceText": "Ten years of shipping.",
		"School": "State University",
		"Major": "Computer Science",
		"Graduation": "2015",
		"Skills": ["Go", "SQL", "Kubernetes"],
		"Resume": "resume.pdf"
	},
	"Project1": {
		"Title": "MuscleMate",
		"Desc": "A workout tracker.",
		"MainImage": "mm.png",
		"GitHubRepo": "https://github.com/jane/musclemate",
		"DetailImages": ["mm1.png", "mm2.png", "mm3.png"],
		"Documents": [{"Title": "System Proposal", "File": "System Proposal.pdf"}]
	},
	"Project2": {
		"Title": "TripSplit",
		"Desc": "Split travel costs."
	},
	"Project3": {},
	"Project4": {
		"Title": "Portfolio",
		"LiveDemo": "https://jane.example.com",
		"DetailImages": []
	}
}`
