package content

import "sort"

// Preset is a named, ready-made proposal section.
type Preset struct {
	Name   string `json:"name"`
	Markup string `json:"markup"`
}

var presets = map[string]string{
	"Company Introduction": `<h2>About Us</h2>
<p>We are a digital marketing and web solutions agency helping businesses build a strong online presence, grow brand visibility and reach the audience that matters to them.</p>`,

	"Scope of Work": `<h2>Scope of Work</h2>
<p>This project aims to grow [CLIENT NAME]'s online presence, raise brand awareness and improve visibility across the platforms where its customers spend time.</p>
<p>The goal is to bring in high-intent customers and drive consistent sales through optimized paid advertising and content management.</p>`,

	"Project Objectives": `<h2>Project Objectives</h2>
<ul>
<li>Improve brand credibility</li>
<li>Strengthen online visibility with optimized content</li>
<li>Manage Instagram, Facebook and TikTok accounts end to end</li>
<li>Showcase core products, categories and value proposition</li>
<li>Stories highlighting offers, new arrivals and custom work</li>
</ul>`,

	"Website Development": `<h2>Website Development</h2>
<ul>
<li>Custom website with an attractive, user-friendly design</li>
<li>Domain registration and hosting setup</li>
<li>SSL certificate for secure browsing</li>
<li>Firewall, virus and malware protection</li>
<li>Up to 15 pages of content</li>
<li>Two business email accounts</li>
<li>Responsive, mobile-friendly layout</li>
<li>Contact forms and calls-to-action</li>
<li>Social media links and integration</li>
</ul>`,

	"E-Commerce Website": `<h2>E-Commerce Website Design and Development</h2>
<ul>
<li>Custom storefront on the existing domain and hosting</li>
<li>SSL certificate for secure browsing</li>
<li>Up to 60 products from client-provided images and descriptions</li>
<li>Payment gateway integration</li>
<li>WhatsApp or chat bot integration</li>
<li>Mobile-responsive, SEO-friendly design</li>
<li>Performance tuning for speed, caching and security</li>
<li>Monthly health check and maintenance</li>
<li>Analytics and Search Console setup</li>
</ul>`,

	"Social Media Marketing": `<h2>Social Media Marketing</h2>
<ul>
<li>Three creative posts per week</li>
<li>Weekly content calendar</li>
<li>Profile optimization for bio, highlights and hashtags</li>
<li>Regular stories and engagement</li>
<li>Competitor and trend analysis</li>
<li>Monthly performance reporting</li>
</ul>`,

	"Paid Campaign Strategy": `<h2>Paid Campaign Strategy and Planning</h2>
<p><strong>Targeted campaigns aimed at:</strong></p>
<ul>
<li>Local customers, residents and visitors</li>
<li>High-intent shoppers searching for the client's products</li>
<li>Retargeting audiences who already interacted with the brand</li>
</ul>
<p><strong>Platforms:</strong></p>
<ul>
<li>Meta Ads (Instagram and Facebook)</li>
<li>TikTok Ads, budget permitting</li>
<li>Google Ads (Search and Display)</li>
</ul>
<p><strong>Strategy:</strong></p>
<ul>
<li>Market and competitor research</li>
<li>Campaign objectives, KPIs and audience personas</li>
<li>Budget planning and channel allocation</li>
<li>Ongoing bid and budget optimization</li>
<li>A/B testing of creatives, audiences and landing pages</li>
<li>Monthly KPI report with next-step recommendations</li>
</ul>`,

	"SEO Optimization": `<h2>SEO Optimization</h2>
<ul>
<li>Business directory and Google Business listings</li>
<li>At least 12 hours of website SEO each month</li>
<li>Weekly blog content for organic ranking</li>
<li>On-page and off-page SEO</li>
<li>Technical audit and content optimization</li>
<li>Image optimization for faster loading</li>
</ul>`,

	"Corporate Profile": `<h2>Corporate Profile</h2>
<p><strong>Basic six page corporate profile</strong></p>
<ul>
<li>Cover page</li>
<li>Company introduction</li>
<li>Vision, mission and values</li>
<li>Core business activities</li>
<li>Why choose us</li>
<li>Contact information</li>
</ul>`,

	"Project Process": `<h2>Project Process</h2>
<ul>
<li><strong>Kickoff:</strong> goals, brand identity and requirements.</li>
<li><strong>Structure:</strong> a clear, user-friendly flow.</li>
<li><strong>Design:</strong> professional mockups.</li>
<li><strong>Development:</strong> a functional, secure build.</li>
<li><strong>Feedback:</strong> client review rounds.</li>
<li><strong>Launch:</strong> deployment, DNS setup and final polish.</li>
<li><strong>Handover:</strong> fixes and content management training.</li>
</ul>`,

	"Project Timeline": `<h2>Project Timeline</h2>
<table>
<thead><tr><th>Phase</th><th>Description</th><th>Duration</th></tr></thead>
<tbody>
<tr><td>Phase 1</td><td>Planning and design</td><td>TBD</td></tr>
<tr><td>Phase 2</td><td>Development and implementation</td><td>TBD</td></tr>
</tbody>
</table>`,

	"Deliverables": `<h2>Deliverables</h2>
<p>On completion [CLIENT NAME] receives:</p>
<ul>
<li>A fully functional website</li>
<li>Management training for the team</li>
<li>Admin credentials for content management</li>
<li>Monthly SEO performance reports</li>
</ul>`,
}

// Presets lists the catalogue sorted by name.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for name, markup := range presets {
		out = append(out, Preset{Name: name, Markup: markup})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func LookupPreset(name string) (string, bool) {
	m, ok := presets[name]
	return m, ok
}
